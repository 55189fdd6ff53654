package program

// Text categories understood by the renderer.
const (
	TextOpening    = "opening"
	TextConfession = "confession"
	TextAbsolution = "absolution"
	TextOffertory  = "offertory"
	TextEucharist  = "eucharist"
	TextCreed      = "creed"
	TextBlessing   = "blessing"
	TextDismissal  = "dismissal"
)

var canonicalTexts = map[string]string{
	TextOpening:    "The grace of our Lord Jesus Christ, and the love of God, and the fellowship of the Holy Spirit, be with you all.",
	TextConfession: "Almighty God, our heavenly Father, we have sinned against you and against our neighbour, in thought and word and deed. We are truly sorry and repent of all our sins.",
	TextAbsolution: "Almighty God, who forgives all who truly repent, have mercy upon you, pardon and deliver you from all your sins.",
	TextOffertory:  "Yours, Lord, is the greatness, the power, the glory, the splendour and the majesty.",
	TextEucharist:  "The Lord be with you. And also with you. Lift up your hearts. We lift them to the Lord.",
	TextCreed:      "We believe in one God, the Father, the Almighty, maker of heaven and earth, of all that is, seen and unseen.",
	TextBlessing:   "The blessing of God almighty, the Father, the Son and the Holy Spirit, be among you and remain with you always.",
	TextDismissal:  "Go in peace to love and serve the Lord. In the name of Christ. Amen.",
}

// Texts maps a category to the liturgical wording printed in the program.
// Categories missing from the map fall back to the canonical wording.
type Texts map[string]string

// DefaultTexts returns a copy of the canonical wording.
func DefaultTexts() Texts {
	out := make(Texts, len(canonicalTexts))
	for k, v := range canonicalTexts {
		out[k] = v
	}
	return out
}

// Text returns the wording for category.
func (t Texts) Text(category string) string {
	if v, ok := t[category]; ok && v != "" {
		return v
	}
	return canonicalTexts[category]
}
