package passenger

// Field names a passenger record attribute using its wire key.
type Field string

const (
	FieldClass        Field = "Pclass"
	FieldSex          Field = "Sex"
	FieldAge          Field = "Age"
	FieldFare         Field = "Fare"
	FieldEmbarked     Field = "Embarked"
	FieldFamilySize   Field = "FamilySize"
	FieldIsAlone      Field = "isAlone"
	FieldTitle        Field = "Title"
	FieldTicketPrefix Field = "TicketPrefix"
	FieldCabinLetter  Field = "CabinLetter"
)

// InputFields lists the user-entered scalar fields in form order. isAlone is
// derived and therefore not part of this list.
var InputFields = []Field{
	FieldClass,
	FieldSex,
	FieldAge,
	FieldFare,
	FieldEmbarked,
	FieldFamilySize,
	FieldTitle,
	FieldTicketPrefix,
	FieldCabinLetter,
}

// Option is one selectable enumeration value with its display label.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

var classOptions = []Option{
	{Value: "1", Label: "First Class"},
	{Value: "2", Label: "Second Class"},
	{Value: "3", Label: "Third Class"},
}

var sexOptions = []Option{
	{Value: "male", Label: "Male"},
	{Value: "female", Label: "Female"},
}

var embarkedOptions = []Option{
	{Value: "C", Label: "Cherbourg (C)"},
	{Value: "Q", Label: "Queenstown (Q)"},
	{Value: "S", Label: "Southampton (S)"},
}

// Titles is the closed set of honorifics.
var Titles = []string{
	"Mr", "Mrs", "Miss", "Master", "Dr", "Rev", "Col", "Major", "Capt",
	"Countess", "Don", "Dona", "Jonkheer", "Lady", "Mlle", "Mme", "Ms", "Sir",
}

// TicketPrefixes is the closed set of known ticket prefixes.
var TicketPrefixes = []string{
	"PC", "STON/O2", "A/5", "C.A.", "S.O.C.", "A/4", "W./C.", "SOTON/O.Q.",
	"A./5.", "C", "CA", "F.C.C.", "SC/PARIS", "SO/C", "W.E.P.", "A/S",
	"S.W./PP", "S.C./PARIS", "C.A./SOTON", "SC/AH", "LINE",
}

// CabinLetters is the closed set of cabin decks.
var CabinLetters = []string{"A", "B", "C", "D", "E", "F", "G", "T"}

// Options returns the selectable values for an enumerated field, or nil when
// the field is free-form. The returned slice is a copy.
func Options(field Field) []Option {
	switch field {
	case FieldClass:
		return cloneOptions(classOptions)
	case FieldSex:
		return cloneOptions(sexOptions)
	case FieldEmbarked:
		return cloneOptions(embarkedOptions)
	case FieldTitle:
		return plainOptions(Titles)
	case FieldTicketPrefix:
		return plainOptions(TicketPrefixes)
	case FieldCabinLetter:
		out := make([]Option, len(CabinLetters))
		for i, letter := range CabinLetters {
			out[i] = Option{Value: letter, Label: deckLabel(letter)}
		}
		return out
	default:
		return nil
	}
}

// OptionLabel resolves the display label for a value, falling back to the
// raw value when the field is free-form or the value is unknown.
func OptionLabel(field Field, value string) string {
	for _, opt := range Options(field) {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// Known reports whether name is a passenger field, including isAlone.
func Known(name string) (Field, bool) {
	field := Field(name)
	if field == FieldIsAlone {
		return field, true
	}
	for _, candidate := range InputFields {
		if candidate == field {
			return field, true
		}
	}
	return "", false
}

func deckLabel(letter string) string {
	switch letter {
	case "A":
		return "Deck A (Upper)"
	case "G":
		return "Deck G (Lower)"
	default:
		return "Deck " + letter
	}
}

func plainOptions(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

func cloneOptions(src []Option) []Option {
	return append([]Option(nil), src...)
}
