package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 功能模块只需实现路由挂载
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂），默认 100
type prioritizer interface{ Priority() int }

var (
	mu      sync.RWMutex
	apiMods []APIModule
)

func Register(mod APIModule) {
	mu.Lock()
	defer mu.Unlock()
	apiMods = append(apiMods, mod)
}

// MountAllAPI 按优先级挂载所有已注册模块
func MountAllAPI(root *gin.RouterGroup) {
	mu.RLock()
	mods := append([]APIModule(nil), apiMods...)
	mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(root)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
