package llm

// Role names used in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of request content: either text or an inline blob.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsBlob reports whether the part carries inline binary data.
func (p Part) IsBlob() bool {
	return p.MIMEType != "" && p.Data != nil
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart returns an inline data part, e.g. a PDF resume.
func BlobPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Turn is a prior conversation message sent as history.
type Turn struct {
	Role  string
	Parts []Part
}

// SchemaType mirrors the response schema types the models accept.
type SchemaType string

// Schema types
const (
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Schema declares the JSON shape a model response must follow.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

// Request is a single model invocation.
type Request struct {
	Tier        ModelTier
	Temperature float32
	Parts       []Part
	History     []Turn

	// JSON asks for an application/json response; ResponseSchema implies JSON.
	JSON           bool
	ResponseSchema *Schema

	// GroundWithSearch enables the Google Search tool. The web sources the
	// model grounded on come back in Response.Citations.
	GroundWithSearch bool
}

// Citation is a web page the model grounded its answer on.
type Citation struct {
	Title string
	URI   string
}

// Response is the model output.
type Response struct {
	Text      string
	Citations []Citation
}
