package list

import (
	"strconv"

	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/sparql"
)

// snakToPart converts one snak into a ResultCellPart, per the conversion
// table in spec §4.6. property is the snak's own property id, used to
// build ExternalID parts.
func snakToPart(snak mediawiki.Snak, property string) resultcell.Part {
	switch snak.SnakType {
	case mediawiki.SomeValue, mediawiki.NoValue:
		return resultcell.NewText("No/unknown value")
	}

	if snak.DataValue == nil {
		return resultcell.NewText("No/unknown value")
	}

	switch value := snak.DataValue.Value.(type) {
	case mediawiki.WikiBaseEntityIDValue:
		return resultcell.NewEntity(value.ID, true)
	case mediawiki.StringValue:
		dataType := mediawiki.String
		if snak.DataType != nil {
			dataType = *snak.DataType
		}
		switch dataType { //nolint:exhaustive
		case mediawiki.CommonsMedia:
			return resultcell.NewFile(string(value))
		case mediawiki.ExternalID:
			return resultcell.NewExternalID(property, string(value))
		default:
			return resultcell.NewText(string(value))
		}
	case mediawiki.QuantityValue:
		amount, _ := value.Amount.Float64()
		return resultcell.NewText(strconv.FormatFloat(amount, 'f', -1, 64))
	case mediawiki.GlobeCoordinateValue:
		return resultcell.NewLocation(value.Latitude, value.Longitude)
	case mediawiki.TimeValue:
		reduced := sparql.ReduceTime(value.Time, value.Precision)
		return resultcell.NewTime(reduced)
	case mediawiki.MonolingualTextValue:
		return resultcell.NewText(value.Language + ":" + value.Text)
	default:
		return resultcell.NewText("No/unknown value")
	}
}
