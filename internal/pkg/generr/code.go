package generr

type mErr struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

var (
	ParseParam  = &mErr{400, "invalid parameter"}
	ServerError = &mErr{500, "server error"}
)

var (
	SignMiss     = &mErr{601, "sign missing"}
	SignNotMatch = &mErr{602, "sign not match"}
	TimestampErr = &mErr{603, "timestamp invalid"}
	TimestampOut = &mErr{604, "timestamp expired"}
	ReadDB       = &mErr{698, "read database failed"}
	UpdateDB     = &mErr{699, "update database failed"}

	InvalidWallet = &mErr{701, "invalid wallet address"}
	BalanceLookup = &mErr{702, "balance lookup failed"}
	RateLimited   = &mErr{703, "too many requests"}
	BelowMinTier  = &mErr{704, "balance below minimum tier"}

	PeriodNotFound  = &mErr{801, "profit period not found"}
	PeriodState     = &mErr{802, "profit period in wrong state"}
	PeriodAction    = &mErr{803, "invalid action"}
	BuybackNotSaved = &mErr{805, "failed to record buyback"}
	InvalidTxSig    = &mErr{806, "invalid transaction signature"}
)

type okResp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// OK wraps data in the success envelope.
func OK(data interface{}) okResp {
	return okResp{200, "success", data}
}
