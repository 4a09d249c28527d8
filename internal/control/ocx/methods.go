package ocx

import "kiwoom/internal/openapi"

func (c *Control) GetAPIModulePath() (string, error) {
	return asString(c.invoke(openapi.MethodGetAPIModulePath))
}

func (c *Control) SendOrder(rqName, screenNo, accountNo string, orderType int, code string, qty int, price, stopPrice, hogaGb, orgOrderNo string) (int, error) {
	return asInt(c.invoke(openapi.MethodSendOrder, rqName, screenNo, accountNo, orderType, code, qty, price, stopPrice, hogaGb, orgOrderNo))
}

func (c *Control) GetGlobalOptionItemlist() (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalOptionItemlist))
}

func (c *Control) GetConnectState() (int, error) {
	return asInt(c.invoke(openapi.MethodGetConnectState))
}

func (c *Control) GetGlobalFutOpCodeInfoByCode(code string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutOpCodeInfoByCode, code))
}

func (c *Control) CommConnect(autoLogin int) (int, error) {
	return asInt(c.invoke(openapi.MethodCommConnect, autoLogin))
}

func (c *Control) GetGlobalOptionMonthByItem(item string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalOptionMonthByItem, item))
}

func (c *Control) GetGlobalOptionActPriceByItem() (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalOptionActPriceByItem))
}

func (c *Control) GetRepeatCnt(trCode, recordName string) (int, error) {
	return asInt(c.invoke(openapi.MethodGetRepeatCnt, trCode, recordName))
}

func (c *Control) GetGlobalFutureCodelist(item string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutureCodelist, item))
}

func (c *Control) GetGlobalFutureItemTypelist() (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutureItemTypelist))
}

func (c *Control) GetGlobalFutOpCodeInfoByType(gubun int, itemType string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutOpCodeInfoByType, gubun, itemType))
}

func (c *Control) GetCommFullData(trCode, rqName string, gubun int) (string, error) {
	return asString(c.invoke(openapi.MethodGetCommFullData, trCode, rqName, gubun))
}

func (c *Control) CommTerminate() error {
	_, err := c.invoke(openapi.MethodCommTerminate)
	return err
}

func (c *Control) GetGlobalFutureItemlistByType(itemType string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutureItemlistByType, itemType))
}

func (c *Control) SetInputValue(field, value string) error {
	_, err := c.invoke(openapi.MethodSetInputValue, field, value)
	return err
}

func (c *Control) GetConvertPrice(code, price string, priceType int) (string, error) {
	return asString(c.invoke(openapi.MethodGetConvertPrice, code, price, priceType))
}

func (c *Control) CommRqData(rqName, trCode, prevNext, screenNo string) (int, error) {
	return asInt(c.invoke(openapi.MethodCommRqData, rqName, trCode, prevNext, screenNo))
}

func (c *Control) GetGlobalFutureCodeByItemMonth(item, month string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutureCodeByItemMonth, item, month))
}

func (c *Control) GetGlobalOptionCodeByMonth(item, callPut, actPrice, month string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalOptionCodeByMonth, item, callPut, actPrice, month))
}

func (c *Control) GetGlobalFutureItemlist() (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalFutureItemlist))
}

func (c *Control) GetCommData(trCode, rqName string, index int, fieldName string) (string, error) {
	return asString(c.invoke(openapi.MethodGetCommData, trCode, rqName, index, fieldName))
}

func (c *Control) DisconnectRealData(screenNo string) error {
	_, err := c.invoke(openapi.MethodDisconnectRealData, screenNo)
	return err
}

func (c *Control) GetGlobalOptionCodelist(item string) (string, error) {
	return asString(c.invoke(openapi.MethodGetGlobalOptionCodelist, item))
}

func (c *Control) GetLoginInfo(tag string) (string, error) {
	return asString(c.invoke(openapi.MethodGetLoginInfo, tag))
}

func (c *Control) GetChejanData(fid int) (string, error) {
	return asString(c.invoke(openapi.MethodGetChejanData, fid))
}

func (c *Control) GetCommRealData(realType string, fid int) (string, error) {
	return asString(c.invoke(openapi.MethodGetCommRealData, realType, fid))
}
