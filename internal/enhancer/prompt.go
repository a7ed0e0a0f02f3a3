package enhancer

// BasePrompt is the default instruction sent ahead of the retrieved context.
const BasePrompt = `You are an analytics instrumentation expert. Study the attached app screens
in order and propose the analytics events a product team should track.

Respond with JSON only. Use this shape:
{
  "events": [
    {
      "id": "evt_1",
      "name": "objectActioned",
      "element": "UI element that triggers the event",
      "category": "user_action | screen_view | system_event",
      "triggers": ["tap"],
      "sources": ["screen name"],
      "confidence": 0.0,
      "properties": [
        {"name": "camelCase", "type": "string | number | boolean | object",
         "source": "on-screen | carried-forward | global", "required": true,
         "example": "value", "confidence": 0.0}
      ]
    }
  ],
  "globalProperties": [],
  "carriedProperties": {"screenId": []},
  "recommendations": [],
  "confidence": 0.0
}

Confidence values are between 0 and 1. Property names are unique within an event.`

const workedExamples = `Input: a product detail screen with an "Add to cart" button.
Output:
{"events":[{"id":"evt_1","name":"addToCartClicked","element":"Add to cart button","category":"user_action","triggers":["tap"],"sources":["product_detail"],"confidence":0.9,"properties":[{"name":"productId","type":"string","source":"carried-forward","required":true,"example":"sku_123","confidence":0.9},{"name":"price","type":"number","source":"on-screen","required":true,"example":19.99,"confidence":0.85}]}],"globalProperties":[{"name":"userId","type":"string","source":"global","required":true,"confidence":0.95}],"carriedProperties":{"product_detail":[{"name":"productId","type":"string","source":"carried-forward","required":true,"confidence":0.9}]},"recommendations":["Track cart quantity changes"],"confidence":0.88}
`
