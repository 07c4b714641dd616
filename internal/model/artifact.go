package model

// Artifact is one output file pair: the plain link listing and its base64
// subscription form. Decoding Encoded always yields Plain byte-for-byte;
// the output package refuses to build an Artifact that breaks this.
type Artifact struct {
	// Name identifies the artifact ("all", "vless", "combined", ...).
	Name string `json:"name"`

	// Plain is the newline-joined listing with one trailing newline.
	Plain string `json:"-"`

	// Encoded is the standard base64 encoding of Plain.
	Encoded string `json:"-"`

	// Lines is the number of entries in Plain.
	Lines int `json:"lines"`
}
