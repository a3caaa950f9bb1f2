// Package media resolves stored image references to URLs and writes uploaded
// images to object storage.
package media

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// sanityRef matches legacy Sanity asset references: image-{hash}-{w}x{h}-{ext}.
var sanityRef = regexp.MustCompile(`^image-([A-Za-z0-9]+)-(\d+)x(\d+)-([A-Za-z0-9]+)$`)

// Object is the metadata stored in a record's image column after an upload.
type Object struct {
	Backend     string `json:"backend,omitempty"`
	Bucket      string `json:"bucket"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	FileID      string `json:"file_id,omitempty"`
}

// Marshal returns the JSON form written to image columns.
func (o Object) Marshal() string {
	b, _ := json.Marshal(o)
	return string(b)
}

// Resolver builds displayable URLs for both reference formats.
type Resolver struct {
	SupabaseURL     string
	SanityProjectID string
	SanityDataset   string
	// GridFSBaseURL serves GridFS objects; defaults to /api/images.
	GridFSBaseURL string
}

// Resolve turns a stored reference into a URL. Storage metadata JSON resolves
// to the object's public URL. Anything that does not parse as metadata is
// treated as a legacy value: a Sanity reference, an absolute URL, or passed
// through unchanged.
func (r Resolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "{") {
		var obj Object
		if err := json.Unmarshal([]byte(ref), &obj); err == nil && obj.Path != "" {
			return r.objectURL(obj)
		}
	}
	return r.legacyURL(ref)
}

func (r Resolver) objectURL(o Object) string {
	if o.Backend == BackendGridFS {
		base := r.GridFSBaseURL
		if base == "" {
			base = "/api/images"
		}
		return strings.TrimRight(base, "/") + "/" + url.PathEscape(o.FileID)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(r.SupabaseURL, "/"), url.PathEscape(o.Bucket), escapePath(o.Path))
}

func (r Resolver) legacyURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	m := sanityRef.FindStringSubmatch(ref)
	if m == nil || r.SanityProjectID == "" {
		return ref
	}
	dataset := r.SanityDataset
	if dataset == "" {
		dataset = "production"
	}
	return fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s-%sx%s.%s",
		r.SanityProjectID, dataset, m[1], m[2], m[3], m[4])
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
