package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	translator *gst.ShaderTranslator
	initErr    error
	initOnce   sync.Once
)

// GetTranslator returns the process-wide shader translator, creating it on
// first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	initOnce.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", initErr)
	}
	return translator, nil
}

// Translated is a stage translated for the current GL profile.
type Translated struct {
	Code string
	// Names maps source uniform names to the names the translator emitted.
	Names map[string]string
}

// Translate converts a GLSL ES 3.00 stage ("vertex" or "fragment") to GLSL 410,
// or to ESSL when gles is set.
func Translate(source, stage string, gles bool) (*Translated, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, err
	}
	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	shader, err := t.TranslateShader(source, stage, gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	names := make(map[string]string, len(shader.Variables))
	for name, v := range shader.Variables {
		names[name] = v.MappedName
	}
	return &Translated{Code: shader.Code, Names: names}, nil
}
