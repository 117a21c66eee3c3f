package limiter

import (
	"fmt"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
)

// Init 初始化 Sentinel 并为每个资源加载 QPS 规则, qps <= 0 的资源不限流
func Init(rules map[string]float64) error {
	if err := sentinel.InitDefault(); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}
	return LoadRules(rules)
}

func LoadRules(rules map[string]float64) error {
	var flowRules []*flow.Rule
	for resource, qps := range rules {
		if qps <= 0 {
			continue
		}
		flowRules = append(flowRules, &flow.Rule{
			Resource:               resource,
			TokenCalculateStrategy: flow.Direct, // 直接计数
			ControlBehavior:        flow.Reject, // 直接拒绝
			Threshold:              qps,
			StatIntervalInMs:       1000,
		})
	}
	_, err := flow.LoadRules(flowRules)
	return err
}

// Allow enters resource and returns the exit func, or false when blocked.
func Allow(resource string) (func(), bool) {
	e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
	if b != nil {
		return nil, false
	}
	return func() { e.Exit() }, true
}
