package analysis

// MockConfidence is the aggregate confidence of the fallback result.
const MockConfidence = 0.88

// MockResult returns the deterministic fallback analysis used whenever no
// backend is usable or the model output cannot be recovered. Every call
// builds a fresh value, so callers may modify what they receive.
func MockResult() AnalysisResult {
	userID := Property{Name: "userId", Type: TypeString, Source: SourceGlobal, Required: true, Example: "user_12345", Confidence: 0.95, Description: "Authenticated user identifier"}
	sessionID := Property{Name: "sessionId", Type: TypeString, Source: SourceGlobal, Required: true, Example: "sess_abc123", Confidence: 0.93, Description: "Current app session"}
	timestamp := Property{Name: "timestamp", Type: TypeString, Source: SourceGlobal, Required: true, Example: "2024-01-15T10:30:00Z", Confidence: 0.95, Description: "ISO-8601 time the event fired"}
	platform := Property{Name: "platform", Type: TypeString, Source: SourceGlobal, Required: false, Example: "ios", Confidence: 0.85}

	return AnalysisResult{
		Events: []Event{
			{
				ID:       "evt_1",
				Name:     "screenViewed",
				Element:  "screen",
				Category: CategoryScreenView,
				Properties: []Property{
					{Name: "screenName", Type: TypeString, Source: SourceOnScreen, Required: true, Example: "home", Confidence: 0.92},
					{Name: "previousScreen", Type: TypeString, Source: SourceCarriedForward, Example: "onboarding", Confidence: 0.8},
					{Name: "section", Type: TypeString, Source: SourceOnScreen, Example: "main", Confidence: 0.78},
				},
				Triggers:   []string{"screen appears"},
				Sources:    []string{"home"},
				Confidence: 0.9,
			},
			{
				ID:       "evt_2",
				Name:     "bannerClicked",
				Element:  "promo_banner",
				Category: CategoryUserAction,
				Properties: []Property{
					{Name: "bannerId", Type: TypeString, Source: SourceOnScreen, Required: true, Example: "summer_sale", Confidence: 0.88},
					{Name: "campaignId", Type: TypeString, Source: SourceOnScreen, Example: "cmp_2024_07", Confidence: 0.82},
					{Name: "position", Type: TypeNumber, Source: SourceOnScreen, Example: 1, Confidence: 0.8},
				},
				Triggers:   []string{"tap on promotional banner"},
				Sources:    []string{"home"},
				Confidence: 0.88,
			},
			{
				ID:       "evt_3",
				Name:     "productSelected",
				Element:  "product_card",
				Category: CategoryUserAction,
				Properties: []Property{
					{Name: "productId", Type: TypeString, Source: SourceOnScreen, Required: true, Example: "sku_987", Confidence: 0.9},
					{Name: "price", Type: TypeNumber, Source: SourceOnScreen, Required: true, Example: 29.99, Confidence: 0.87},
					{Name: "currency", Type: TypeString, Source: SourceOnScreen, Example: "USD", Confidence: 0.85},
					{Name: "listPosition", Type: TypeNumber, Source: SourceOnScreen, Example: 3, Confidence: 0.78},
				},
				Triggers:   []string{"tap on product card"},
				Sources:    []string{"home", "category"},
				Confidence: 0.87,
			},
			{
				ID:       "evt_4",
				Name:     "addToCartClicked",
				Element:  "add_to_cart_button",
				Category: CategoryUserAction,
				Properties: []Property{
					{Name: "productId", Type: TypeString, Source: SourceCarriedForward, Required: true, Example: "sku_987", Confidence: 0.9},
					{Name: "quantity", Type: TypeNumber, Source: SourceOnScreen, Required: true, Example: 1, Confidence: 0.86},
					{Name: "price", Type: TypeNumber, Source: SourceCarriedForward, Example: 29.99, Confidence: 0.85},
				},
				Triggers:   []string{"tap on add to cart"},
				Sources:    []string{"product_detail"},
				Confidence: 0.89,
			},
			{
				ID:       "evt_5",
				Name:     "searchSubmitted",
				Element:  "search_bar",
				Category: CategoryUserAction,
				Properties: []Property{
					{Name: "query", Type: TypeString, Source: SourceOnScreen, Required: true, Example: "running shoes", Confidence: 0.88},
					{Name: "resultCount", Type: TypeNumber, Source: SourceOnScreen, Example: 42, Confidence: 0.75},
				},
				Triggers:   []string{"submit search"},
				Sources:    []string{"home"},
				Confidence: 0.86,
			},
			{
				ID:       "evt_6",
				Name:     "checkoutStarted",
				Element:  "checkout_button",
				Category: CategoryUserAction,
				Properties: []Property{
					{Name: "cartValue", Type: TypeNumber, Source: SourceOnScreen, Required: true, Example: 59.98, Confidence: 0.87},
					{Name: "itemCount", Type: TypeNumber, Source: SourceOnScreen, Required: true, Example: 2, Confidence: 0.86},
					{Name: "currency", Type: TypeString, Source: SourceOnScreen, Example: "USD", Confidence: 0.84},
				},
				Triggers:   []string{"tap on checkout"},
				Sources:    []string{"cart"},
				Confidence: 0.88,
			},
		},
		GlobalProperties: []Property{userID, sessionID, timestamp, platform},
		CarriedProperties: map[string][]Property{
			"product_detail": {
				{Name: "productId", Type: TypeString, Source: SourceCarriedForward, Required: true, Example: "sku_987", Confidence: 0.9},
				{Name: "price", Type: TypeNumber, Source: SourceCarriedForward, Example: 29.99, Confidence: 0.85},
			},
		},
		Recommendations: []string{
			"Use objectAction naming (bannerClicked, checkoutStarted) consistently",
			"Attach userId, sessionId and timestamp to every event as global properties",
			"Carry productId forward from product detail into cart and checkout events",
		},
		Confidence: MockConfidence,
	}
}
