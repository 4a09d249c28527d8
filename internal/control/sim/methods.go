package sim

import "kiwoom/internal/openapi"

func (c *Control) GetAPIModulePath() (string, error) {
	c.record(openapi.MethodGetAPIModulePath)
	return c.stringResult(openapi.MethodGetAPIModulePath), nil
}

func (c *Control) SendOrder(rqName, screenNo, accountNo string, orderType int, code string, qty int, price, stopPrice, hogaGb, orgOrderNo string) (int, error) {
	c.record(openapi.MethodSendOrder, rqName, screenNo, accountNo, orderType, code, qty, price, stopPrice, hogaGb, orgOrderNo)
	return c.intResult(openapi.MethodSendOrder, openapi.CodeOK), nil
}

func (c *Control) GetGlobalOptionItemlist() (string, error) {
	c.record(openapi.MethodGetGlobalOptionItemlist)
	return c.stringResult(openapi.MethodGetGlobalOptionItemlist), nil
}

// GetConnectState answers from the result table, else from the simulated login.
func (c *Control) GetConnectState() (int, error) {
	c.record(openapi.MethodGetConnectState)
	c.mu.Lock()
	state := 0
	if c.connected {
		state = 1
	}
	c.mu.Unlock()
	return c.intResult(openapi.MethodGetConnectState, state), nil
}

func (c *Control) GetGlobalFutOpCodeInfoByCode(code string) (string, error) {
	c.record(openapi.MethodGetGlobalFutOpCodeInfoByCode, code)
	return c.stringResult(openapi.MethodGetGlobalFutOpCodeInfoByCode), nil
}

func (c *Control) CommConnect(autoLogin int) (int, error) {
	c.record(openapi.MethodCommConnect, autoLogin)
	ret := c.intResult(openapi.MethodCommConnect, openapi.CodeOK)
	c.mu.Lock()
	login := c.autoLogin && ret == openapi.CodeOK
	if login {
		c.connected = true
	}
	c.mu.Unlock()
	if login {
		if err := c.Enqueue(openapi.OnEventConnect, openapi.CodeOK); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (c *Control) GetGlobalOptionMonthByItem(item string) (string, error) {
	c.record(openapi.MethodGetGlobalOptionMonthByItem, item)
	return c.stringResult(openapi.MethodGetGlobalOptionMonthByItem), nil
}

func (c *Control) GetGlobalOptionActPriceByItem() (string, error) {
	c.record(openapi.MethodGetGlobalOptionActPriceByItem)
	return c.stringResult(openapi.MethodGetGlobalOptionActPriceByItem), nil
}

func (c *Control) GetRepeatCnt(trCode, recordName string) (int, error) {
	c.record(openapi.MethodGetRepeatCnt, trCode, recordName)
	return c.intResult(openapi.MethodGetRepeatCnt, 0), nil
}

func (c *Control) GetGlobalFutureCodelist(item string) (string, error) {
	c.record(openapi.MethodGetGlobalFutureCodelist, item)
	return c.stringResult(openapi.MethodGetGlobalFutureCodelist), nil
}

func (c *Control) GetGlobalFutureItemTypelist() (string, error) {
	c.record(openapi.MethodGetGlobalFutureItemTypelist)
	return c.stringResult(openapi.MethodGetGlobalFutureItemTypelist), nil
}

func (c *Control) GetGlobalFutOpCodeInfoByType(gubun int, itemType string) (string, error) {
	c.record(openapi.MethodGetGlobalFutOpCodeInfoByType, gubun, itemType)
	return c.stringResult(openapi.MethodGetGlobalFutOpCodeInfoByType), nil
}

func (c *Control) GetCommFullData(trCode, rqName string, gubun int) (string, error) {
	c.record(openapi.MethodGetCommFullData, trCode, rqName, gubun)
	return c.stringResult(openapi.MethodGetCommFullData), nil
}

func (c *Control) CommTerminate() error {
	c.record(openapi.MethodCommTerminate)
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

func (c *Control) GetGlobalFutureItemlistByType(itemType string) (string, error) {
	c.record(openapi.MethodGetGlobalFutureItemlistByType, itemType)
	return c.stringResult(openapi.MethodGetGlobalFutureItemlistByType), nil
}

func (c *Control) SetInputValue(field, value string) error {
	c.record(openapi.MethodSetInputValue, field, value)
	c.mu.Lock()
	c.inputs[field] = value
	c.mu.Unlock()
	return nil
}

func (c *Control) GetConvertPrice(code, price string, priceType int) (string, error) {
	c.record(openapi.MethodGetConvertPrice, code, price, priceType)
	if v := c.stringResult(openapi.MethodGetConvertPrice); v != "" {
		return v, nil
	}
	return price, nil
}

// CommRqData consumes the pending inputs and, when a responder exists for
// trCode or none is installed at all, queues the OnReceiveTrData reply.
func (c *Control) CommRqData(rqName, trCode, prevNext, screenNo string) (int, error) {
	c.record(openapi.MethodCommRqData, rqName, trCode, prevNext, screenNo)
	ret := c.intResult(openapi.MethodCommRqData, openapi.CodeOK)
	c.mu.Lock()
	inputs := c.inputs
	c.inputs = make(map[string]string)
	responder, ok := c.responders[trCode]
	noResponders := len(c.responders) == 0
	c.mu.Unlock()
	if ret != openapi.CodeOK {
		return ret, nil
	}
	var args []any
	switch {
	case ok && responder != nil:
		args = responder(rqName, trCode, prevNext, screenNo, inputs)
	case noResponders:
		args = []any{screenNo, rqName, trCode, "", "0"}
	}
	if args != nil {
		if err := c.Enqueue(openapi.OnReceiveTrData, args...); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (c *Control) GetGlobalFutureCodeByItemMonth(item, month string) (string, error) {
	c.record(openapi.MethodGetGlobalFutureCodeByItemMonth, item, month)
	return c.stringResult(openapi.MethodGetGlobalFutureCodeByItemMonth), nil
}

func (c *Control) GetGlobalOptionCodeByMonth(item, callPut, actPrice, month string) (string, error) {
	c.record(openapi.MethodGetGlobalOptionCodeByMonth, item, callPut, actPrice, month)
	return c.stringResult(openapi.MethodGetGlobalOptionCodeByMonth), nil
}

func (c *Control) GetGlobalFutureItemlist() (string, error) {
	c.record(openapi.MethodGetGlobalFutureItemlist)
	return c.stringResult(openapi.MethodGetGlobalFutureItemlist), nil
}

func (c *Control) GetCommData(trCode, rqName string, index int, fieldName string) (string, error) {
	c.record(openapi.MethodGetCommData, trCode, rqName, index, fieldName)
	c.mu.Lock()
	v, ok := c.commData[commKey(trCode, rqName, index, fieldName)]
	c.mu.Unlock()
	if ok {
		return v, nil
	}
	return c.stringResult(openapi.MethodGetCommData), nil
}

func (c *Control) DisconnectRealData(screenNo string) error {
	c.record(openapi.MethodDisconnectRealData, screenNo)
	return nil
}

func (c *Control) GetGlobalOptionCodelist(item string) (string, error) {
	c.record(openapi.MethodGetGlobalOptionCodelist, item)
	return c.stringResult(openapi.MethodGetGlobalOptionCodelist), nil
}

func (c *Control) GetLoginInfo(tag string) (string, error) {
	c.record(openapi.MethodGetLoginInfo, tag)
	return c.stringResult(openapi.MethodGetLoginInfo), nil
}

func (c *Control) GetChejanData(fid int) (string, error) {
	c.record(openapi.MethodGetChejanData, fid)
	return c.stringResult(openapi.MethodGetChejanData), nil
}

func (c *Control) GetCommRealData(realType string, fid int) (string, error) {
	c.record(openapi.MethodGetCommRealData, realType, fid)
	return c.stringResult(openapi.MethodGetCommRealData), nil
}
