package pageinfo

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		title     string
		desc      string
		canonical string
	}{
		{
			name:  "og title wins",
			html:  `<html><head><title>Plain</title><meta property="og:title" content="  Open   Graph "></head><body><h1>H</h1></body></html>`,
			title: "Open Graph",
		},
		{
			name:  "title tag",
			html:  "<html><head><title>\n Read files in JS \n</title><meta name=\"description\" content=\"How to read\"></head></html>",
			title: "Read files in JS",
			desc:  "How to read",
		},
		{
			name:      "h1 fallback and canonical",
			html:      `<html><head><link rel="canonical" href=" https://x.test/a "><meta property="og:description" content="og desc"></head><body><h1>Heading</h1></body></html>`,
			title:     "Heading",
			desc:      "og desc",
			canonical: "https://x.test/a",
		},
		{
			name: "empty document",
			html: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Parse(tt.html)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if info.Title != tt.title {
				t.Errorf("Title = %q, want %q", info.Title, tt.title)
			}
			if info.Description != tt.desc {
				t.Errorf("Description = %q, want %q", info.Description, tt.desc)
			}
			if info.Canonical != tt.canonical {
				t.Errorf("Canonical = %q, want %q", info.Canonical, tt.canonical)
			}
		})
	}
}
