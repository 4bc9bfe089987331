package cli

import (
	"errors"
	"regexp"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/config"
	"github.com/example/buysell/internal/infra/captcha"
	"github.com/example/buysell/internal/infra/cas"
	"github.com/example/buysell/internal/infra/database"
	"github.com/example/buysell/internal/infra/mq"
	"github.com/example/buysell/internal/infra/redis"
	"github.com/example/buysell/internal/logger"
	"github.com/example/buysell/internal/middleware"
	"github.com/example/buysell/internal/repository/gormrepo"
	"github.com/example/buysell/internal/server"
	"github.com/example/buysell/internal/service"
)

// runtime 进程级资源，启动时显式创建，退出时统一关闭
type runtime struct {
	cfg     *config.Config
	flush   func()
	db      *gorm.DB
	store   *gormrepo.Store
	redis   radix.Client
	cache   []radix.Client // 额外的 token 缓存节点
	mqConn  *amqp.Connection
	monitor *service.Monitor
}

// bootstrap 读取配置、初始化日志并连接数据库
func bootstrap(opts *RootOptions) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	flush, err := logger.Init(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		flush()
		return nil, err
	}
	return &runtime{
		cfg:     cfg,
		flush:   flush,
		db:      db,
		store:   gormrepo.NewStore(db),
		monitor: service.NewMonitor(),
	}, nil
}

// connectRedis 连接失败时降级运行：不缓存 token，不限制尝试次数
func (rt *runtime) connectRedis() {
	c, err := redis.Open(&rt.cfg.Redis)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		zap.L().Info("redis disabled")
	case err != nil:
		zap.L().Warn("redis unavailable, running without token cache and attempt limits", zap.Error(err))
	default:
		rt.redis = c
	}
}

// cacheNodes 连接 token 缓存节点；未单独配置时复用主 redis，连不上的节点跳过
func (rt *runtime) cacheNodes() map[string]radix.Client {
	addrs := rt.cfg.Auth.CacheNodes
	if len(addrs) == 0 {
		if rt.redis == nil {
			return nil
		}
		return map[string]radix.Client{rt.cfg.Redis.Addr: rt.redis}
	}
	nodes := make(map[string]radix.Client, len(addrs))
	for _, addr := range addrs {
		c, err := redis.Open(&config.RedisConfig{Addr: addr, PoolSize: rt.cfg.Redis.PoolSize})
		if err != nil {
			zap.L().Warn("token cache node unavailable", zap.String("addr", addr), zap.Error(err))
			continue
		}
		nodes[addr] = c
		rt.cache = append(rt.cache, c)
	}
	return nodes
}

func (rt *runtime) connectMQ() error {
	conn, err := mq.Dial(&rt.cfg.RabbitMQ)
	if err != nil {
		return err
	}
	rt.mqConn = conn
	return nil
}

func (rt *runtime) attemptGuard(max int) auth.AttemptGuard {
	if rt.redis == nil {
		return auth.NopAttemptGuard{}
	}
	return auth.NewRedisAttemptGuard(rt.redis, max, rt.cfg.Limits.AttemptWindow)
}

// serverDeps 组装服务与路由依赖
func (rt *runtime) serverDeps(events service.EventPublisher) *server.Deps {
	cfg := rt.cfg
	cache := auth.NewTokenCache(rt.cacheNodes(), cfg.Auth.HashReplicas, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)
	gate := auth.NewGate(&cfg.JWT, cache)
	hasher := auth.NewBcryptHasher(0)

	return &server.Deps{
		Store:   rt.store,
		Gate:    gate,
		CAS:     cas.New(&cfg.CAS),
		Monitor: rt.monitor,
		Accounts: service.NewAccountService(rt.store, hasher, gate, captcha.New(&cfg.Captcha),
			rt.attemptGuard(cfg.Limits.LoginMaxAttempts), rt.monitor,
			regexp.MustCompile(cfg.Account.EmailPattern), cfg.CAS.EmailDomain),
		Listings:    service.NewListingService(rt.store, rt.monitor),
		Carts:       service.NewCartService(rt.store, rt.monitor),
		Orders:      service.NewOrderService(rt.store, hasher, rt.attemptGuard(cfg.Limits.OTPMaxAttempts), events, rt.monitor),
		AuthLimiter: middleware.NewTokenBucket(cfg.Limits.AuthRateCapacity, cfg.Limits.AuthRateRefill),
	}
}

// Close 按创建的逆序释放资源
func (rt *runtime) Close() {
	if rt.mqConn != nil {
		if err := rt.mqConn.Close(); err != nil {
			zap.L().Warn("close rabbitmq", zap.Error(err))
		}
	}
	for _, c := range rt.cache {
		if err := c.Close(); err != nil {
			zap.L().Warn("close token cache node", zap.Error(err))
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			zap.L().Warn("close redis", zap.Error(err))
		}
	}
	if err := database.Close(rt.db); err != nil {
		zap.L().Warn("close database", zap.Error(err))
	}
	rt.flush()
}
