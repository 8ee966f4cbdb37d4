package platform

// PickerIntent asks the OS for an openable document picker.
type PickerIntent struct {
	PrimaryType   string   `json:"primary_type"`
	MimeTypes     []string `json:"mime_types,omitempty"`
	AllowMultiple bool     `json:"allow_multiple"`
}

// CaptureIntent asks the OS camera to write a photo to Output.
type CaptureIntent struct {
	Output Ref `json:"output"`
}

// ChooserIntent is what the upload broker launches: a picker, optionally
// wrapped in a chooser offering a capture alternative.
type ChooserIntent struct {
	Picker  PickerIntent   `json:"picker"`
	Capture *CaptureIntent `json:"capture,omitempty"`
}

// Composite reports whether the chooser offers a capture alternative.
func (c ChooserIntent) Composite() bool {
	return c.Capture != nil
}

// BuildPicker derives a picker intent from accept filters. The first
// non-empty filter that is not the wildcard becomes the primary type; the
// full filter list is passed through only when there is more than one.
func BuildPicker(accept []string, allowMultiple bool) PickerIntent {
	primary := "*/*"
	for _, candidate := range accept {
		if candidate != "" && candidate != "*/*" {
			primary = candidate
			break
		}
	}

	intent := PickerIntent{
		PrimaryType:   primary,
		AllowMultiple: allowMultiple,
	}
	if len(accept) > 1 {
		intent.MimeTypes = append([]string(nil), accept...)
	}
	return intent
}
