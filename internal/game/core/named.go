package core

// Named is implemented by every entity addressable by a stable name.
type Named interface {
	Name() string
}

// HasAttachments is implemented by entities carrying named attachments.
type HasAttachments interface {
	Named
	Attachment(name string) (*Attachment, bool)
	AddAttachment(a *Attachment)
	AttachmentNames() []string
}

// Attachment is a named bag of string properties hung off an entity.
// Rule content (tech, canals, territory effects) lives in these bags and is
// interpreted by whoever reads it.
type Attachment struct {
	name  string
	props map[string]string
}

// NewAttachment creates an attachment with the given initial properties.
func NewAttachment(name string, props map[string]string) *Attachment {
	a := &Attachment{name: name, props: make(map[string]string, len(props))}
	for k, v := range props {
		a.props[k] = v
	}
	return a
}

func (a *Attachment) Name() string { return a.name }

// Property returns the raw property value and whether it was set.
func (a *Attachment) Property(key string) (string, bool) {
	v, ok := a.props[key]
	return v, ok
}

// SetProperty sets a property. An empty value clears it.
// Only a Change may call this on live game data.
func (a *Attachment) SetProperty(key, value string) {
	if value == "" {
		delete(a.props, key)
		return
	}
	a.props[key] = value
}

// Properties returns a copy of all properties.
func (a *Attachment) Properties() map[string]string {
	out := make(map[string]string, len(a.props))
	for k, v := range a.props {
		out[k] = v
	}
	return out
}

// Attachments is embedded by entities to implement HasAttachments.
type Attachments struct {
	byName map[string]*Attachment
	order  []string
}

func (as *Attachments) Attachment(name string) (*Attachment, bool) {
	a, ok := as.byName[name]
	return a, ok
}

func (as *Attachments) AddAttachment(a *Attachment) {
	if as.byName == nil {
		as.byName = make(map[string]*Attachment)
	}
	if _, exists := as.byName[a.Name()]; !exists {
		as.order = append(as.order, a.Name())
	}
	as.byName[a.Name()] = a
}

func (as *Attachments) AttachmentNames() []string {
	return append([]string(nil), as.order...)
}
