package openapi

import "time"

// The methods below forward 1:1 to the control. Status codes come back
// unchanged; see ErrorMessages and CheckCode.

// GetAPIModulePath returns the install path of the OpenAPI module.
func (a *API) GetAPIModulePath() (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetAPIModulePath()
	a.called(MethodGetAPIModulePath, start, out, err)
	return out, err
}

// SendOrder submits an order to the server.
func (a *API) SendOrder(rqName, screenNo, accountNo string, orderType int, code string, qty int, price, stopPrice, hogaGb, orgOrderNo string) (int, error) {
	start := time.Now()
	out, err := a.ctrl.SendOrder(rqName, screenNo, accountNo, orderType, code, qty, price, stopPrice, hogaGb, orgOrderNo)
	a.called(MethodSendOrder, start, out, err, rqName, screenNo, accountNo, orderType, code, qty, price, stopPrice, hogaGb, orgOrderNo)
	return out, err
}

// GetGlobalOptionItemlist returns the overseas option product list.
func (a *API) GetGlobalOptionItemlist() (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalOptionItemlist()
	a.called(MethodGetGlobalOptionItemlist, start, out, err)
	return out, err
}

// GetConnectState returns 1 when connected and 0 otherwise.
func (a *API) GetConnectState() (int, error) {
	start := time.Now()
	out, err := a.ctrl.GetConnectState()
	a.called(MethodGetConnectState, start, out, err)
	return out, err
}

func (a *API) GetGlobalFutOpCodeInfoByCode(code string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutOpCodeInfoByCode(code)
	a.called(MethodGetGlobalFutOpCodeInfoByCode, start, out, err, code)
	return out, err
}

// CommConnect opens the login window. The result arrives as OnEventConnect.
func (a *API) CommConnect(autoLogin int) (int, error) {
	start := time.Now()
	out, err := a.ctrl.CommConnect(autoLogin)
	a.called(MethodCommConnect, start, out, err, autoLogin)
	return out, err
}

func (a *API) GetGlobalOptionMonthByItem(item string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalOptionMonthByItem(item)
	a.called(MethodGetGlobalOptionMonthByItem, start, out, err, item)
	return out, err
}

func (a *API) GetGlobalOptionActPriceByItem() (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalOptionActPriceByItem()
	a.called(MethodGetGlobalOptionActPriceByItem, start, out, err)
	return out, err
}

// GetRepeatCnt returns the number of repeated rows in a received record.
func (a *API) GetRepeatCnt(trCode, recordName string) (int, error) {
	start := time.Now()
	out, err := a.ctrl.GetRepeatCnt(trCode, recordName)
	a.called(MethodGetRepeatCnt, start, out, err, trCode, recordName)
	return out, err
}

func (a *API) GetGlobalFutureCodelist(item string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutureCodelist(item)
	a.called(MethodGetGlobalFutureCodelist, start, out, err, item)
	return out, err
}

func (a *API) GetGlobalFutureItemTypelist() (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutureItemTypelist()
	a.called(MethodGetGlobalFutureItemTypelist, start, out, err)
	return out, err
}

func (a *API) GetGlobalFutOpCodeInfoByType(gubun int, itemType string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutOpCodeInfoByType(gubun, itemType)
	a.called(MethodGetGlobalFutOpCodeInfoByType, start, out, err, gubun, itemType)
	return out, err
}

// GetCommFullData returns the whole received payload as one fixed-width string.
func (a *API) GetCommFullData(trCode, rqName string, gubun int) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetCommFullData(trCode, rqName, gubun)
	a.called(MethodGetCommFullData, start, out, err, trCode, rqName, gubun)
	return out, err
}

// CommTerminate disconnects from the server.
func (a *API) CommTerminate() error {
	start := time.Now()
	err := a.ctrl.CommTerminate()
	a.called(MethodCommTerminate, start, nil, err)
	return err
}

func (a *API) GetGlobalFutureItemlistByType(itemType string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutureItemlistByType(itemType)
	a.called(MethodGetGlobalFutureItemlistByType, start, out, err, itemType)
	return out, err
}

// SetInputValue sets one input field of the next CommRqData.
func (a *API) SetInputValue(field, value string) error {
	start := time.Now()
	err := a.ctrl.SetInputValue(field, value)
	a.called(MethodSetInputValue, start, nil, err, field, value)
	return err
}

func (a *API) GetConvertPrice(code, price string, priceType int) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetConvertPrice(code, price, priceType)
	a.called(MethodGetConvertPrice, start, out, err, code, price, priceType)
	return out, err
}

// CommRqData sends a query. The response arrives as OnReceiveTrData.
func (a *API) CommRqData(rqName, trCode, prevNext, screenNo string) (int, error) {
	start := time.Now()
	out, err := a.ctrl.CommRqData(rqName, trCode, prevNext, screenNo)
	a.called(MethodCommRqData, start, out, err, rqName, trCode, prevNext, screenNo)
	return out, err
}

func (a *API) GetGlobalFutureCodeByItemMonth(item, month string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutureCodeByItemMonth(item, month)
	a.called(MethodGetGlobalFutureCodeByItemMonth, start, out, err, item, month)
	return out, err
}

func (a *API) GetGlobalOptionCodeByMonth(item, callPut, actPrice, month string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalOptionCodeByMonth(item, callPut, actPrice, month)
	a.called(MethodGetGlobalOptionCodeByMonth, start, out, err, item, callPut, actPrice, month)
	return out, err
}

func (a *API) GetGlobalFutureItemlist() (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalFutureItemlist()
	a.called(MethodGetGlobalFutureItemlist, start, out, err)
	return out, err
}

// GetCommData reads one field of a received record row.
func (a *API) GetCommData(trCode, rqName string, index int, fieldName string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetCommData(trCode, rqName, index, fieldName)
	a.called(MethodGetCommData, start, out, err, trCode, rqName, index, fieldName)
	return out, err
}

// DisconnectRealData drops every real-data subscription of a screen.
func (a *API) DisconnectRealData(screenNo string) error {
	start := time.Now()
	err := a.ctrl.DisconnectRealData(screenNo)
	a.called(MethodDisconnectRealData, start, nil, err, screenNo)
	return err
}

func (a *API) GetGlobalOptionCodelist(item string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetGlobalOptionCodelist(item)
	a.called(MethodGetGlobalOptionCodelist, start, out, err, item)
	return out, err
}

// GetLoginInfo returns login details such as "ACCNO" or "USER_ID".
func (a *API) GetLoginInfo(tag string) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetLoginInfo(tag)
	a.called(MethodGetLoginInfo, start, out, err, tag)
	return out, err
}

// GetChejanData reads one FID of the fill/balance payload inside OnReceiveChejanData.
func (a *API) GetChejanData(fid int) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetChejanData(fid)
	a.called(MethodGetChejanData, start, out, err, fid)
	return out, err
}

// GetCommRealData reads one FID of the tick inside OnReceiveRealData.
// The control ignores realType; any value returns the same data.
func (a *API) GetCommRealData(realType string, fid int) (string, error) {
	start := time.Now()
	out, err := a.ctrl.GetCommRealData(realType, fid)
	a.called(MethodGetCommRealData, start, out, err, realType, fid)
	return out, err
}
