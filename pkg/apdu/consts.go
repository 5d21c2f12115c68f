package apdu

// Instruction identifies the INS byte of an APDU request.
type Instruction byte

const (
	InsRegister     Instruction = 0x01
	InsAuthenticate Instruction = 0x02
	InsVersion      Instruction = 0x03
)

// SignCondition is the AUTHENTICATE request's P1 byte.
type SignCondition byte

const (
	// SignCheckOnly never signs; it only reports whether the handle is
	// known.
	SignCheckOnly SignCondition = 0x07
	// SignRequirePresence signs only if the user is present.
	SignRequirePresence SignCondition = 0x03
	// SignAlways signs regardless of presence.
	SignAlways SignCondition = 0x08
)

// StatusWord is the two-byte trailer on every APDU response.
type StatusWord uint16

const (
	SWNoError                StatusWord = 0x9000
	SWConditionsNotSatisfied StatusWord = 0x6985
	SWWrongData              StatusWord = 0x6A80
	SWWrongLength            StatusWord = 0x6700
	SWClaNotSupported        StatusWord = 0x6E00
	SWInsNotSupported        StatusWord = 0x6D00
)

const versionString = "U2F_V2"

const (
	registerRequestLen   = 64
	registerReservedByte = 0x05
	authHeaderReserved   = 0x00
)
