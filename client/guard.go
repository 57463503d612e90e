package client

import (
	"context"
	"log"
	"sync"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
)

// BundleFetcher 权益数据的三个子请求。*Client 实现了该接口，
// 测试时可以替换为桩实现。
type BundleFetcher interface {
	FetchSubscription(ctx context.Context) (*model.UserSubscription, error)
	FetchPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	FetchUsage(ctx context.Context) (*dto.UsageStats, error)
}

// Bundle 一次拉取的合并结果。子请求互相独立，失败的部分为零值，
// 成功的部分照常填充。
type Bundle struct {
	Subscription *model.UserSubscription
	Plans        []model.SubscriptionPlan
	Usage        *dto.UsageStats
}

type flight struct {
	done chan struct{}
}

type accountState struct {
	inFlight  *flight
	hasLoaded bool
	bundle    *Bundle
}

// BundleGuard 单飞协调器。同一账号同一时刻最多一个在途拉取，
// 后来的非强制调用等待在途结果而不是重复发起；force 调用无视
// 在途和已加载状态，总是发起新的拉取，后完成者覆盖共享结果。
// 协调器实例显式构造并传递给调用方，不做全局单例。
type BundleGuard struct {
	fetcher BundleFetcher

	mu     sync.Mutex
	states map[int64]*accountState
}

func NewBundleGuard(fetcher BundleFetcher) *BundleGuard {
	return &BundleGuard{
		fetcher: fetcher,
		states:  make(map[int64]*accountState),
	}
}

// Ensure 确保账号的权益数据已加载，阻塞到本次关注的拉取结束。
//   - 已有在途拉取且 force=false：等待在途结果，不发起新拉取
//   - 已加载且 force=false：直接返回缓存结果
//   - force=true：总是发起新拉取
//
// accountID 为空是无操作，只记一条警告日志。
func (g *BundleGuard) Ensure(ctx context.Context, accountID int64, force bool) (*Bundle, error) {
	if accountID == 0 {
		log.Println("BundleGuard: empty account id, skipping fetch")
		return nil, nil
	}

	g.mu.Lock()
	st, ok := g.states[accountID]
	if !ok {
		st = &accountState{}
		g.states[accountID] = st
	}

	if !force {
		if st.inFlight != nil {
			f := st.inFlight
			g.mu.Unlock()
			select {
			case <-f.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return g.Bundle(accountID), nil
		}
		if st.hasLoaded {
			bundle := st.bundle
			g.mu.Unlock()
			return bundle, nil
		}
	}

	f := &flight{done: make(chan struct{})}
	st.inFlight = f
	g.mu.Unlock()

	bundle := g.fetch(ctx)

	g.mu.Lock()
	st.bundle = bundle
	st.hasLoaded = true
	// 旗标只由当前在途的拉取清除，被 force 替换掉的旧拉取不清
	if st.inFlight == f {
		st.inFlight = nil
	}
	g.mu.Unlock()
	close(f.done)

	return bundle, nil
}

// Bundle 读取账号的共享结果，未加载时为 nil
func (g *BundleGuard) Bundle(accountID int64) *Bundle {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[accountID]; ok {
		return st.bundle
	}
	return nil
}

// HasLoaded 账号是否完成过至少一次拉取（含部分失败）
func (g *BundleGuard) HasLoaded(accountID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[accountID]; ok {
		return st.hasLoaded
	}
	return false
}

// fetch 并发执行三个子请求，等全部结束后返回。单个失败不影响
// 其它部分：失败的留零值并记日志，不整体报错。
func (g *BundleGuard) fetch(ctx context.Context) *Bundle {
	bundle := &Bundle{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		sub, err := g.fetcher.FetchSubscription(ctx)
		if err != nil {
			log.Printf("BundleGuard: fetch subscription failed: %v", err)
			return
		}
		bundle.Subscription = sub
	}()

	go func() {
		defer wg.Done()
		plans, err := g.fetcher.FetchPlans(ctx)
		if err != nil {
			log.Printf("BundleGuard: fetch plans failed: %v", err)
			return
		}
		bundle.Plans = plans
	}()

	go func() {
		defer wg.Done()
		usage, err := g.fetcher.FetchUsage(ctx)
		if err != nil {
			log.Printf("BundleGuard: fetch usage failed: %v", err)
			return
		}
		bundle.Usage = usage
	}()

	wg.Wait()
	return bundle
}
