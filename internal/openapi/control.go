package openapi

// Listener receives the positional arguments of one native event. The
// returned error surfaces at the control's callback boundary.
type Listener func(args ...any) error

// Control is the native surface of the vendor control: one method per
// wrapped operation, typed after its vendor signature, plus event hookup.
// Implementations return the control's status codes unchanged; the error
// result is reserved for failures of the call mechanism itself.
type Control interface {
	// Connect installs the single listener for event.
	Connect(event EventName, fn Listener) error
	Close() error

	GetAPIModulePath() (string, error)
	SendOrder(rqName, screenNo, accountNo string, orderType int, code string, qty int, price, stopPrice, hogaGb, orgOrderNo string) (int, error)
	GetGlobalOptionItemlist() (string, error)
	GetConnectState() (int, error)
	GetGlobalFutOpCodeInfoByCode(code string) (string, error)
	CommConnect(autoLogin int) (int, error)
	GetGlobalOptionMonthByItem(item string) (string, error)
	GetGlobalOptionActPriceByItem() (string, error)
	GetRepeatCnt(trCode, recordName string) (int, error)
	GetGlobalFutureCodelist(item string) (string, error)
	GetGlobalFutureItemTypelist() (string, error)
	GetGlobalFutOpCodeInfoByType(gubun int, itemType string) (string, error)
	GetCommFullData(trCode, rqName string, gubun int) (string, error)
	CommTerminate() error
	GetGlobalFutureItemlistByType(itemType string) (string, error)
	SetInputValue(field, value string) error
	GetConvertPrice(code, price string, priceType int) (string, error)
	CommRqData(rqName, trCode, prevNext, screenNo string) (int, error)
	GetGlobalFutureCodeByItemMonth(item, month string) (string, error)
	GetGlobalOptionCodeByMonth(item, callPut, actPrice, month string) (string, error)
	GetGlobalFutureItemlist() (string, error)
	GetCommData(trCode, rqName string, index int, fieldName string) (string, error)
	DisconnectRealData(screenNo string) error
	GetGlobalOptionCodelist(item string) (string, error)
	GetLoginInfo(tag string) (string, error)
	GetChejanData(fid int) (string, error)
	GetCommRealData(realType string, fid int) (string, error)
}
