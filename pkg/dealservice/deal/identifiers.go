package deal

import (
	"fmt"
	"regexp"
)

var mpnPattern = regexp.MustCompile(`^[A-Za-z0-9\-_\.]+$`)

var gtinLengths = map[int]struct{}{8: {}, 12: {}, 13: {}, 14: {}}

// ValidateGTIN checks length, digits and the GS1 check digit
func ValidateGTIN(gtin string) error {
	if _, ok := gtinLengths[len(gtin)]; !ok {
		return fmt.Errorf("GTIN Validation - bad length %d (%s)", len(gtin), gtin)
	}
	sum := 0
	for i, r := range gtin {
		if r < '0' || r > '9' {
			return fmt.Errorf("GTIN Validation - non-digit character (%s)", gtin)
		}
		digit := int(r - '0')
		// weights alternate 3,1 from the right, check digit excluded
		if (len(gtin)-i)%2 == 0 {
			sum += digit * 3
		} else {
			sum += digit
		}
	}
	if sum%10 != 0 {
		return fmt.Errorf("GTIN Validation - check digit mismatch (%s)", gtin)
	}
	return nil
}

// ValidateMPN accepts alphanumerics plus dash, underscore and dot
func ValidateMPN(mpn string) error {
	if len(mpn) < 2 || len(mpn) > 50 {
		return fmt.Errorf("MPN Validation - length must be 2-50, got %d (%s)", len(mpn), mpn)
	}
	if !mpnPattern.MatchString(mpn) {
		return fmt.Errorf("MPN Validation - invalid characters (%s)", mpn)
	}
	return nil
}
