package order

const orderSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["account", "code", "side", "qty"],
  "properties": {
    "rq_name":       {"type": "string", "maxLength": 32},
    "screen_no":     {"type": "string", "pattern": "^[0-9]{4}$"},
    "account":       {"type": "string", "pattern": "^[0-9]{7,11}$"},
    "code":          {"type": "string", "minLength": 1, "maxLength": 16},
    "side":          {"enum": ["buy", "sell"]},
    "action":        {"enum": ["new", "cancel", "modify"]},
    "price_type":    {"enum": ["market", "limit", "stop", "stop_limit"]},
    "qty":           {"type": "integer", "minimum": 1},
    "price":         {"type": ["string", "number"], "pattern": "^[0-9]+(\\.[0-9]+)?$"},
    "stop_price":    {"type": ["string", "number"], "pattern": "^[0-9]+(\\.[0-9]+)?$"},
    "orig_order_no": {"type": "string"}
  },
  "allOf": [
    {
      "if": {"properties": {"action": {"enum": ["cancel", "modify"]}}, "required": ["action"]},
      "then": {"required": ["orig_order_no"], "properties": {"orig_order_no": {"minLength": 1}}}
    },
    {
      "if": {"properties": {"price_type": {"enum": ["limit", "stop_limit"]}}, "required": ["price_type"]},
      "then": {"required": ["price"]}
    },
    {
      "if": {"properties": {"price_type": {"enum": ["stop", "stop_limit"]}}, "required": ["price_type"]},
      "then": {"required": ["stop_price"]}
    }
  ]
}`
