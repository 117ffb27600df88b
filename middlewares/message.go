package middlewares

var Responses = struct {
	FailedValidations   *NewRM
	InternalServerError *NewRM
	SessionNotFound     *NewRM
	SessionSettled      *NewRM
	MissingOrderToken   *NewRM
	CheckoutRecorded    *NewRM
	CheckoutClosed      *NewRM
}{
	FailedValidations: &NewRM{
		Language.English: "Failed field validations",
		Language.Hindi:   "फ़ील्ड सत्यापन विफल रहा",
	},
	InternalServerError: &NewRM{
		Language.English: "Internal server error",
		Language.Hindi:   "सर्वर में समस्या",
	},
	SessionNotFound: &NewRM{
		Language.English: "Checkout session not found or expired",
		Language.Hindi:   "चेकआउट सत्र नहीं मिला या समाप्त हो गया",
	},
	SessionSettled: &NewRM{
		Language.English: "Checkout already finished",
		Language.Hindi:   "चेकआउट पहले ही पूरा हो चुका है",
	},
	MissingOrderToken: &NewRM{
		Language.English: "Missing PayPal order token",
		Language.Hindi:   "PayPal ऑर्डर टोकन नहीं मिला",
	},
	CheckoutRecorded: &NewRM{
		Language.English: "Payment received. You can close this window.",
		Language.Hindi:   "भुगतान प्राप्त हुआ। आप यह विंडो बंद कर सकते हैं।",
	},
	CheckoutClosed: &NewRM{
		Language.English: "Payment cancelled. You can close this window.",
		Language.Hindi:   "भुगतान रद्द किया गया। आप यह विंडो बंद कर सकते हैं।",
	},
}

type NewRM map[string]string

var Language = struct {
	English string
	Hindi   string
}{
	English: "en",
	Hindi:   "hi",
}

var LanguageMap = map[string]string{
	Language.Hindi:   "Hindi",
	Language.English: "English",
}

// Get returns the message in lang, falling back to English.
func (m *NewRM) Get(lang string) string {
	if msg, ok := (*m)[lang]; ok {
		return msg
	}
	return (*m)[Language.English]
}
