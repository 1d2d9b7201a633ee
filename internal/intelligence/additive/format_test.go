package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatChemicalName(t *testing.T) {
	assert.Equal(t, "Sodium Benzoate", FormatChemicalName(" SODIUM BENZOATE "))
	assert.Equal(t, "Natural Flavors", FormatChemicalName("Natural Flavors"))
	assert.Equal(t, "", FormatChemicalName("  "))
}

func TestFormatTechnicalEffect(t *testing.T) {
	assert.Equal(t, "", FormatTechnicalEffect(""))
	assert.Equal(t, "Thickener", FormatTechnicalEffect("THICKENER"))
	assert.Equal(t, "Antimicrobial Agent and Preservative", FormatTechnicalEffect("ANTIMICROBIAL AGENT|PRESERVATIVE"))
	assert.Equal(t, "Acidifier, Flavoring Agent, and Sequestrant",
		FormatTechnicalEffect("ACIDIFIER| FLAVORING AGENT | |SEQUESTRANT"))
	assert.Equal(t, "pH control and Nutrient", FormatTechnicalEffect("pH control|NUTRIENT"))
}

func TestFormatOtherNames(t *testing.T) {
	assert.Equal(t, "Benzoate Of Soda, E211",
		FormatOtherNames("SODIUM BENZOATE|BENZOATE OF SODA|E211", "Sodium Benzoate"))
	assert.Equal(t, "Vitamin C", FormatOtherNames("Vitamin C", "ASCORBIC ACID"))
	assert.Equal(t, "", FormatOtherNames("", "ASCORBIC ACID"))
}
