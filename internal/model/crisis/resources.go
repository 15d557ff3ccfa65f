package crisis

// Contact is a phone or text line staffed around the clock.
type Contact struct {
	Name        string `json:"name"`
	Number      string `json:"number"`
	Description string `json:"description"`
	Type        string `json:"type"` // call, text or emergency
}

// InternationalLine is a country-specific helpline.
type InternationalLine struct {
	Country string `json:"country"`
	Number  string `json:"number"`
}

// OnlineResource points to a web-based support service.
type OnlineResource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Resources groups everything shown on the crisis support screen.
type Resources struct {
	Emergency     []Contact           `json:"emergency"`
	International []InternationalLine `json:"international"`
	Online        []OnlineResource    `json:"online"`
}

// Default returns the built-in crisis resource list.
func Default() Resources {
	return Resources{
		Emergency: []Contact{
			{
				Name:        "988 Suicide & Crisis Lifeline",
				Number:      "988",
				Description: "24/7 free and confidential support for people in distress",
				Type:        "call",
			},
			{
				Name:        "Crisis Text Line",
				Number:      "Text HOME to 741741",
				Description: "24/7 crisis support via text message",
				Type:        "text",
			},
			{
				Name:        "Emergency Services",
				Number:      "911",
				Description: "For immediate life-threatening emergencies",
				Type:        "emergency",
			},
		},
		International: []InternationalLine{
			{Country: "United Kingdom", Number: "116 123 (Samaritans)"},
			{Country: "Canada", Number: "1-833-456-4566"},
			{Country: "Australia", Number: "13 11 14 (Lifeline)"},
			{Country: "Germany", Number: "0800 111 0 111"},
			{Country: "France", Number: "3114"},
			{Country: "Japan", Number: "03-5774-0992"},
		},
		Online: []OnlineResource{
			{
				Name:        "National Suicide Prevention Lifeline",
				URL:         "https://suicidepreventionlifeline.org",
				Description: "Comprehensive crisis resources and chat support",
			},
			{
				Name:        "Crisis Text Line",
				URL:         "https://crisistextline.org",
				Description: "Text-based crisis support and resources",
			},
			{
				Name:        "NAMI (National Alliance on Mental Illness)",
				URL:         "https://nami.org",
				Description: "Mental health resources and support groups",
			},
		},
	}
}
