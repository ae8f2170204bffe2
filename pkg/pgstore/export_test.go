package pgstore

const (
	TryIncrementSQL       = tryIncrementSQL
	IncrementUnlimitedSQL = incrementUnlimitedSQL
	CounterValueSQL       = counterValueSQL
	UsageSQL              = usageSQL

	GetAccountSQL      = getAccountSQL
	UpsertAccountSQL   = upsertAccountSQL
	GetAPIKeyByHashSQL = getAPIKeyByHashSQL
	InsertAPIKeySQL    = insertAPIKeySQL
	TouchAPIKeySQL     = touchAPIKeySQL
	SetAPIKeyActiveSQL = setAPIKeyActiveSQL

	CurrentSubscriptionSQL       = currentSubscriptionSQL
	CancelCurrentSubscriptionSQL = cancelCurrentSubscriptionSQL
	InsertSubscriptionSQL        = insertSubscriptionSQL

	GetPlanSQL     = getPlanSQL
	PublicPlansSQL = publicPlansSQL
	UpsertPlanSQL  = upsertPlanSQL
)

var OperationLogColumns = operationLogColumns
