package emit

import (
	"encoding/json"

	"github.com/svaarala/duktape-sub000/generator"
)

// BuildMetadata is the build metadata document. Field order is
// alphabetical so the output is stable.
type BuildMetadata struct {
	BuiltinStrings       []string `json:"builtin_strings"`
	BuiltinStringsBase64 []string `json:"builtin_strings_base64"`
	Comment              string   `json:"comment"`
	Version              int      `json:"duk_version"`
	VersionString        string   `json:"duk_version_string"`
	GitDescribe          string   `json:"git_describe"`
}

// Metadata builds the metadata document for out.
func Metadata(out *generator.Output) *BuildMetadata {
	m := &BuildMetadata{
		BuiltinStringsBase64: out.Strings.Base64(),
		Comment:              "Metadata for Duktape build",
		Version:              out.Version,
		VersionString:        out.VersionString(),
		GitDescribe:          out.GitDescribe,
	}
	for _, s := range out.Strings.Strings() {
		m.BuiltinStrings = append(m.BuiltinStrings, s.Key)
	}
	return m
}

// MetadataJSON renders the metadata document as indented JSON.
func MetadataJSON(out *generator.Output) ([]byte, error) {
	b, err := json.MarshalIndent(Metadata(out), "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
