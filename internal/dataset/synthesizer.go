package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yoockh/slife/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var locationPattern = regexp.MustCompile(`^\s*(.+?)\s+-\s+([A-Za-z]{2})\s*$`)

// Types that always accept pets. Matched after lowercasing and accent folding.
var petFriendlyTypes = map[string]bool{
	"studio":      true,
	"estudio":     true,
	"apartment":   true,
	"apartamento": true,
}

// SplitLocation splits "City - UF" into its parts. code is empty when the
// location carries no state suffix.
func SplitLocation(location string) (city, code string) {
	m := locationPattern.FindStringSubmatch(location)
	if m == nil {
		return strings.TrimSpace(location), ""
	}
	return m[1], strings.ToUpper(m[2])
}

// PetPolicyFor derives the pet policy. Studios and apartments always accept
// pets; any other type accepts pets only when its id is even. This is an
// arbitrary placeholder rule kept for compatibility with existing answers.
func PetPolicyFor(rec models.ListingRecord) models.PetPolicy {
	if petFriendlyTypes[foldType(rec.Type)] {
		return models.PetFriendly
	}
	if rec.ID%2 == 0 {
		return models.PetFriendly
	}
	return models.PetNotAllowed
}

// Synthesize renders the embeddable description and citation metadata for
// one record. The field order of the description is stable; answers cite the
// id, city and rent exactly as written here.
func Synthesize(rec models.ListingRecord) models.ListingDocument {
	city, code := SplitLocation(rec.Location)
	state := ""
	locality := city
	if code != "" {
		name, known := StateName(code)
		state = name
		if known {
			locality = fmt.Sprintf("%s, %s (%s)", city, name, code)
		} else {
			locality = fmt.Sprintf("%s (%s)", city, code)
		}
	}
	pet := PetPolicyFor(rec)

	var b strings.Builder
	fmt.Fprintf(&b, "Imóvel ID %d tipo %s em %s. ", rec.ID, rec.Type, locality)
	fmt.Fprintf(&b, "Valor: R$ %s. ", formatDecimal(rec.Rent, 2))
	fmt.Fprintf(&b, "%s. ", petText(pet))
	fmt.Fprintf(&b, "%d quartos, %d vagas. ", rec.Rooms, rec.ParkingSpaces)
	fmt.Fprintf(&b, "Mobília: %s. Internet: %s. Lavanderia: %s. ",
		yesNo(rec.Furnished), yesNo(rec.Internet), yesNo(rec.Laundry))
	fmt.Fprintf(&b, "Distância da universidade: %s km. ", formatDecimal(rec.DistanceKM, 1))
	fmt.Fprintf(&b, "Nota: %s.", formatDecimal(rec.Rating, 1))

	return models.ListingDocument{
		Text: b.String(),
		Metadata: models.ListingMetadata{
			ID:                  rec.ID,
			Type:                rec.Type,
			City:                city,
			State:               state,
			StateCode:           code,
			Rent:                rec.Rent,
			PetPolicy:           pet,
			OriginalDescription: fmt.Sprintf("Imóvel tipo %s em %s.", rec.Type, rec.Location),
		},
	}
}

func SynthesizeAll(recs []models.ListingRecord) []models.ListingDocument {
	out := make([]models.ListingDocument, 0, len(recs))
	for _, r := range recs {
		out = append(out, Synthesize(r))
	}
	return out
}

func petText(p models.PetPolicy) string {
	if p == models.PetFriendly {
		return "Aceita pets"
	}
	return "Não aceita pets"
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// formatDecimal uses the comma decimal separator of the source data.
func formatDecimal(v float64, prec int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', prec, 64), ".", ",", 1)
}

func foldType(t string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(tr, t)
	if err != nil {
		s = t
	}
	return strings.ToLower(strings.TrimSpace(s))
}
