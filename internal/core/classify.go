package core

// TagKind is the tag family derived from the card name bytes of a
// PC/SC contactless ATR.
type TagKind int

const (
	TagUnclassified TagKind = iota
	TagMifareClassic1K
	TagMifareClassic4K
	TagMifareUltralight
	TagMifareMini
	TagTopazJewel
	TagFeliCa212K
	TagFeliCa424K
	TagUnknown
)

// Positions of the two card name bytes in the status response.
const (
	tagByteOffset1  = 13
	tagByteOffset2  = 14
	minStatusLength = tagByteOffset2 + 1
)

func (k TagKind) String() string {
	switch k {
	case TagMifareClassic1K:
		return "Mifare Classic 1K"
	case TagMifareClassic4K:
		return "Mifare Classic 4K"
	case TagMifareUltralight:
		return "Mifare Ultralight or NTAG2xx"
	case TagMifareMini:
		return "Mifare Mini"
	case TagTopazJewel:
		return "Topaz/Jewel"
	case TagFeliCa212K:
		return "FeliCa 212K"
	case TagFeliCa424K:
		return "FeliCa 424K"
	case TagUnknown:
		return "Unknown tag"
	default:
		return "Unclassified"
	}
}

// Identified is false only for TagUnclassified.
func (k TagKind) Identified() bool {
	return k != TagUnclassified
}

// ClassifyPair maps the two card name bytes to a tag kind.
func ClassifyPair(b13, b14 byte) TagKind {
	switch b13 {
	case 0x00:
		switch b14 {
		case 0x01:
			return TagMifareClassic1K
		case 0x02:
			return TagMifareClassic4K
		case 0x03:
			return TagMifareUltralight
		case 0x26:
			return TagMifareMini
		}
	case 0xF0:
		switch b14 {
		case 0x04:
			return TagTopazJewel
		case 0x11:
			return TagFeliCa212K
		case 0x12:
			return TagFeliCa424K
		}
	case 0xFF:
		return TagUnknown
	}
	return TagUnclassified
}

// ClassifyStatus classifies a tag from its status response (the ATR).
func ClassifyStatus(atr []byte) (TagKind, error) {
	if len(atr) < minStatusLength {
		return TagUnclassified, &ClassificationLengthError{Length: len(atr), Required: minStatusLength}
	}
	return ClassifyPair(atr[tagByteOffset1], atr[tagByteOffset2]), nil
}
