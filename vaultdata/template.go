package vaultdata

// FieldType enumerates the closed set of template field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldPassword FieldType = "password"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
)

// Valid reports whether the field type is part of the closed enumeration.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldPassword, FieldEmail, FieldURL, FieldNumber, FieldTextarea:
		return true
	default:
		return false
	}
}

// TemplateField describes one field of a record template.
type TemplateField struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Optional bool      `json:"optional"`
}

// Template is the plaintext payload encrypted as a single blob per
// template entity. The template UUID is the map key in [Vault.Templates].
type Template struct {
	Name   string          `json:"name"`
	Fields []TemplateField `json:"fields"`
}

// FieldByName returns the template field with the given display name.
func (t Template) FieldByName(name string) (TemplateField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return TemplateField{}, false
}

// FieldIndex returns the position of the field id within the template, or
// the number of fields when unknown, so unknown ids sort last.
func (t Template) FieldIndex(id string) int {
	for i, f := range t.Fields {
		if f.ID == id {
			return i
		}
	}

	return len(t.Fields)
}

// FieldByID returns the template field with the given field id.
func (t Template) FieldByID(id string) (TemplateField, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}

	return TemplateField{}, false
}

// Label is the plaintext payload encrypted as a single blob per label
// entity. The label UUID is the map key in [Vault.Labels].
type Label struct {
	Name string `json:"name"`
}

// RecordField is one decrypted field of a record, cross-referenced with
// its template for name and type.
type RecordField struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Type  FieldType `json:"type"`
	Value string    `json:"value"`
}

// DecryptedRecord is the plaintext form of a record returned to callers.
type DecryptedRecord struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Fields       []RecordField `json:"fields"`
	Template     string        `json:"template"`
	Labels       []string      `json:"labels"`
	LastModified Timestamp     `json:"last_modified"`
	Deleted      bool          `json:"deleted"`
	LocalOnly    bool          `json:"local_only"`
}

// RecordListEntry is the decrypted title view of a live record.
type RecordListEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Template     string    `json:"template"`
	Labels       []string  `json:"labels"`
	LastModified Timestamp `json:"last_modified"`
}
