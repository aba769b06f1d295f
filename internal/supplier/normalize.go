package supplier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The supplier API is inconsistent about envelopes (sometimes a bare array,
// sometimes wrapped in a "data" field) and about field names for
// manufacturer id/name. Everything below exists to keep that ambiguity out
// of the rest of the codebase.

// unwrapList accepts either `[...]` or `{"data":[...]}`.
func unwrapList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("supplier: decode list: %w", err)
		}
		return items, nil
	}
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("supplier: decode envelope: %w", err)
	}
	return envelope.Data, nil
}

// unwrapObject accepts either `{...}` or `{"data":{...}}`.
func unwrapObject(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && len(bytes.TrimSpace(envelope.Data)) > 0 {
		return envelope.Data, nil
	}
	return trimmed, nil
}

// flexFloat tolerates numbers serialized as JSON strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type wireManufacturer struct {
	ID      string `json:"id"`
	MfrID   string `json:"mfrId"`
	MfrID2  string `json:"manufacturerId"`
	Name    string `json:"name"`
	MfrName string `json:"mfrName"`
	Name2   string `json:"manufacturerName"`
}

func (w wireManufacturer) normalize() Manufacturer {
	return Manufacturer{
		ID:   firstNonEmpty(w.ID, w.MfrID, w.MfrID2),
		Name: firstNonEmpty(w.Name, w.MfrName, w.Name2),
	}
}

func normalizeManufacturers(body []byte) ([]Manufacturer, error) {
	items, err := unwrapList(body)
	if err != nil {
		return nil, err
	}
	out := make([]Manufacturer, 0, len(items))
	for _, raw := range items {
		var w wireManufacturer
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("supplier: decode manufacturer: %w", err)
		}
		m := w.normalize()
		if m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// wirePicture accepts a bare URL string or an object with a url field.
type wirePicture struct {
	URL string
}

func (p *wirePicture) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.URL)
	}
	var obj struct {
		URL string `json:"url"`
		Src string `json:"src"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.URL = firstNonEmpty(obj.URL, obj.Src)
	return nil
}

type wireDocument struct {
	MediaType string `json:"mediaType"`
	Type      string `json:"type"`
	URL       string `json:"url"`
}

type wireResource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type wireAttribute struct {
	Name     string `json:"name"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

type wireProduct struct {
	AQProductID string `json:"aqProductId"`
	ProductID   string `json:"productId"`
	ID          string `json:"id"`

	MfrID   string `json:"mfrId"`
	MfrID2  string `json:"manufacturerId"`
	MfrName string `json:"mfrName"`
	Name2   string `json:"manufacturerName"`

	ModelNo     string `json:"modelNo"`
	ModelNumber string `json:"modelNumber"`
	Model       string `json:"model"`

	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	ListPrice flexFloat `json:"listPrice"`
	NetPrice  flexFloat `json:"netPrice"`

	Pictures   []wirePicture   `json:"pictures"`
	Documents  []wireDocument  `json:"documents"`
	Resources  []wireResource  `json:"resources"`
	Attributes []wireAttribute `json:"categoryAttributes"`
}

func (w wireProduct) normalize() Product {
	p := Product{
		ID:               firstNonEmpty(w.AQProductID, w.ProductID, w.ID),
		ManufacturerID:   firstNonEmpty(w.MfrID, w.MfrID2),
		ManufacturerName: firstNonEmpty(w.MfrName, w.Name2),
		ModelNumber:      firstNonEmpty(w.ModelNo, w.ModelNumber, w.Model),
		Title:            firstNonEmpty(w.Title, w.Name),
		Description:      w.Description,
		Category:         w.Category,
		ListPrice:        float64(w.ListPrice),
		NetPrice:         float64(w.NetPrice),
	}
	for _, pic := range w.Pictures {
		if pic.URL != "" {
			p.Pictures = append(p.Pictures, pic.URL)
		}
	}
	for _, d := range w.Documents {
		if d.URL == "" {
			continue
		}
		p.Media = append(p.Media, MediaItem{
			Kind: MediaKindDocument,
			Type: firstNonEmpty(d.MediaType, d.Type),
			URL:  d.URL,
		})
	}
	for _, r := range w.Resources {
		if r.URL == "" {
			continue
		}
		p.Media = append(p.Media, MediaItem{Kind: MediaKindResource, Type: r.Type, URL: r.URL})
	}
	for _, a := range w.Attributes {
		name := firstNonEmpty(a.Name, a.Property)
		if name == "" {
			continue
		}
		p.Attributes = append(p.Attributes, Attribute{Name: name, Value: a.Value})
	}
	return p
}

func normalizeProducts(body []byte) ([]Product, error) {
	items, err := unwrapList(body)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(items))
	for _, raw := range items {
		var w wireProduct
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("supplier: decode product: %w", err)
		}
		p := w.normalize()
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func normalizeProduct(body []byte) (*Product, error) {
	raw, err := unwrapObject(body)
	if err != nil {
		return nil, err
	}
	var w wireProduct
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("supplier: decode product: %w", err)
	}
	p := w.normalize()
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
