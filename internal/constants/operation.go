package constants

// 审计模块
const (
	ModuleAuth     = "auth"
	ModuleRegistry = "registry"
	ModuleSummary  = "summary"
	ModuleUnknown  = "unknown"
)

// 审计操作
const (
	ActionLogin   = "login"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionIngest  = "ingest"
	ActionRefresh = "refresh"
)
