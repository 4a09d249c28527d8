package openapi

import (
	"sort"
	"strings"
)

// Method names one wrapped control operation.
type Method string

const (
	MethodGetAPIModulePath               Method = "GetAPIModulePath"
	MethodSendOrder                      Method = "SendOrder"
	MethodGetGlobalOptionItemlist        Method = "GetGlobalOptionItemlist"
	MethodGetConnectState                Method = "GetConnectState"
	MethodGetGlobalFutOpCodeInfoByCode   Method = "GetGlobalFutOpCodeInfoByCode"
	MethodCommConnect                    Method = "CommConnect"
	MethodGetGlobalOptionMonthByItem     Method = "GetGlobalOptionMonthByItem"
	MethodGetGlobalOptionActPriceByItem  Method = "GetGlobalOptionActPriceByItem"
	MethodGetRepeatCnt                   Method = "GetRepeatCnt"
	MethodGetGlobalFutureCodelist        Method = "GetGlobalFutureCodelist"
	MethodGetGlobalFutureItemTypelist    Method = "GetGlobalFutureItemTypelist"
	MethodGetGlobalFutOpCodeInfoByType   Method = "GetGlobalFutOpCodeInfoByType"
	MethodGetCommFullData                Method = "GetCommFullData"
	MethodCommTerminate                  Method = "CommTerminate"
	MethodGetGlobalFutureItemlistByType  Method = "GetGlobalFutureItemlistByType"
	MethodSetInputValue                  Method = "SetInputValue"
	MethodGetConvertPrice                Method = "GetConvertPrice"
	MethodCommRqData                     Method = "CommRqData"
	MethodGetGlobalFutureCodeByItemMonth Method = "GetGlobalFutureCodeByItemMonth"
	MethodGetGlobalOptionCodeByMonth     Method = "GetGlobalOptionCodeByMonth"
	MethodGetGlobalFutureItemlist        Method = "GetGlobalFutureItemlist"
	MethodGetCommData                    Method = "GetCommData"
	MethodDisconnectRealData             Method = "DisconnectRealData"
	MethodGetGlobalOptionCodelist        Method = "GetGlobalOptionCodelist"
	MethodGetLoginInfo                   Method = "GetLoginInfo"
	MethodGetChejanData                  Method = "GetChejanData"
	MethodGetCommRealData                Method = "GetCommRealData"
)

// signatures holds the dynamic-call strings the control dispatches on.
// They are part of the vendor ABI and are reproduced byte for byte,
// including spacing and the GetGlobalOptionCodelist entry that targets
// GetGlobalFutureCodelist.
var signatures = map[Method]string{
	MethodGetAPIModulePath:               "GetAPIModulePath()",
	MethodSendOrder:                      "SendOrder(str, str, str, int, str, int, str, str, str, str)",
	MethodGetGlobalOptionItemlist:        "GetGlobalOptionItemlist()",
	MethodGetConnectState:                "GetConnectState()",
	MethodGetGlobalFutOpCodeInfoByCode:   "GetGlobalFutOpCodeInfoByCode(str)",
	MethodCommConnect:                    "CommConnect(int)",
	MethodGetGlobalOptionMonthByItem:     "GetGlobalOptionMonthByItem(str)",
	MethodGetGlobalOptionActPriceByItem:  "GetGlobalOptionActPriceByItem()",
	MethodGetRepeatCnt:                   "GetRepeatCnt(str, str)",
	MethodGetGlobalFutureCodelist:        "GetGlobalFutureCodelist(str)",
	MethodGetGlobalFutureItemTypelist:    "GetGlobalFutureItemTypelist()",
	MethodGetGlobalFutOpCodeInfoByType:   "GetGlobalFutOpCodeInfoByType(int, str)",
	MethodGetCommFullData:                "GetCommFullData(str, str, int)",
	MethodCommTerminate:                  "CommTerminate()",
	MethodGetGlobalFutureItemlistByType:  "GetGlobalFutureItemlistByType(str)",
	MethodSetInputValue:                  "SetInputValue(str, str)",
	MethodGetConvertPrice:                "GetConvertPrice(str, str, int)",
	MethodCommRqData:                     "CommRqData(str,str,str,str)",
	MethodGetGlobalFutureCodeByItemMonth: "GetGlobalFutureCodeByItemMonth(str, str)",
	MethodGetGlobalOptionCodeByMonth:     "GetGlobalOptionCodeByMonth(str,str,str,str)",
	MethodGetGlobalFutureItemlist:        "GetGlobalFutureItemlist()",
	MethodGetCommData:                    "GetCommData(str, str, int, str)",
	MethodDisconnectRealData:             "DisconnectRealData(str)",
	MethodGetGlobalOptionCodelist:        "GetGlobalFutureCodelist(str)",
	MethodGetLoginInfo:                   "GetLoginInfo(str)",
	MethodGetChejanData:                  "GetChejanData(int)",
	MethodGetCommRealData:                "GetCommRealData(str,int)",
}

// Methods lists every wrapped operation in name order.
func Methods() []Method {
	out := make([]Method, 0, len(signatures))
	for m := range signatures {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Signature returns the vendor dynamic-call string, or "" for an unknown method.
func (m Method) Signature() string {
	return signatures[m]
}

// Native returns the control-side method name taken from the signature.
func (m Method) Native() string {
	sig := m.Signature()
	if i := strings.IndexByte(sig, '('); i > 0 {
		return sig[:i]
	}
	return string(m)
}

// Params returns the parameter type tokens of the signature ("str", "int").
func (m Method) Params() []string {
	sig := m.Signature()
	open := strings.IndexByte(sig, '(')
	closing := strings.LastIndexByte(sig, ')')
	if open < 0 || closing <= open {
		return nil
	}
	inner := strings.TrimSpace(sig[open+1 : closing])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (m Method) String() string { return string(m) }
