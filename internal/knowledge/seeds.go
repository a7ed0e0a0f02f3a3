package knowledge

import "github.com/khanglvm/tracklens/internal/analysis"

// SeedKnowledge returns the curated knowledge every repository starts with.
func SeedKnowledge() []analysis.DomainKnowledgeItem {
	return []analysis.DomainKnowledgeItem{
		{
			ID:          "seed:object_action_naming",
			Category:    analysis.KnowledgeEventNaming,
			Title:       "Object-action event names",
			Description: "Name events as object then past-tense action in camelCase, e.g. bannerClicked, productSelected.",
			Examples: []map[string]any{
				{"good": "bannerClicked", "bad": "click_banner"},
				{"good": "checkoutStarted", "bad": "StartCheckout"},
			},
			Confidence: 0.95,
		},
		{
			ID:          "seed:screen_viewed",
			Category:    analysis.KnowledgeUIPatterns,
			Title:       "Track every screen view",
			Description: "Each distinct screen gets one screenViewed event categorized as screen_view with a screenName property.",
			Examples:    []map[string]any{{"event": "screenViewed", "properties": []string{"screenName"}}},
			Confidence:  0.92,
		},
		{
			ID:                "seed:form_submission",
			Category:          analysis.KnowledgeUIPatterns,
			Title:             "Forms emit one submit event",
			Description:       "Track form submission as a single event carrying field-level validation results rather than one event per keystroke.",
			ApplicableScreens: []string{"login", "signup", "checkout", "search"},
			Confidence:        0.86,
		},
		{
			ID:          "seed:carousel_swipes",
			Category:    analysis.KnowledgeUIPatterns,
			Title:       "Carousel swipes",
			Description: "Swipes through a carousel are usually noise; track item taps instead.",
			Confidence:  0.7,
		},
		{
			ID:          "seed:identifier_types",
			Category:    analysis.KnowledgePropertyTypes,
			Title:       "Identifiers are strings",
			Description: "Ids such as productId, userId and orderId are typed string even when they look numeric.",
			Examples:    []map[string]any{{"property": "productId", "type": "string"}},
			Confidence:  0.9,
		},
		{
			ID:          "seed:monetary_values",
			Category:    analysis.KnowledgePropertyTypes,
			Title:       "Monetary values",
			Description: "Prices and totals are numbers in major units, paired with a string currency property.",
			Examples:    []map[string]any{{"property": "price", "type": "number"}, {"property": "currency", "type": "string"}},
			Confidence:  0.88,
		},
		{
			ID:          "seed:global_context",
			Category:    analysis.KnowledgeBusinessLogic,
			Title:       "Global context properties",
			Description: "userId, sessionId, timestamp and platform apply to every event and belong in globalProperties.",
			Confidence:  0.93,
		},
		{
			ID:                "seed:funnel_steps",
			Category:          analysis.KnowledgeBusinessLogic,
			Title:             "Funnel steps carry context forward",
			Description:       "Properties chosen on an earlier screen, such as productId on a detail page, are carried forward to cart and checkout events.",
			ApplicableScreens: []string{"product_detail", "cart", "checkout"},
			Confidence:        0.85,
		},
	}
}
