package constants

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskCheckoutNotify = "checkout:notify"
)

// 表单转发渠道
const (
	RelayChannelEmail    = "email"
	RelayChannelTelegram = "telegram"
	RelayChannelTeams    = "teams"
)

// 存储驱动
const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// 领域事件路由键
const (
	EventCheckoutSessionCreated = "checkout.session.created.v1"
)
