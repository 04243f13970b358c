package model

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInit sync.Once

// InitializeORT points onnxruntime_go at the shared library and initializes
// the environment. Safe to call more than once.
func InitializeORT() error {
	var err error
	ortInit.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		if runtime.GOOS == "windows" {
			libPath = "onnxruntime.dll"
		} else if runtime.GOOS == "darwin" {
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// Classifier wraps one persisted binary classifier exported to ONNX. The
// export pins the tensor names: input "float_input", output "probabilities"
// with shape (1, 2).
type Classifier struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func LoadClassifier(path string, featureCount int) (*Classifier, error) {
	if err := InitializeORT(); err != nil {
		return nil, fmt.Errorf("onnxruntime init: %w", err)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(featureCount)), make([]float32, featureCount))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{"float_input"}, []string{"probabilities"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session for %s: %w", path, err)
	}

	return &Classifier{session: session, input: inputTensor, output: outputTensor}, nil
}

// Probabilities runs inference and returns [P(class=0), P(class=1)].
func (c *Classifier) Probabilities(features []float64) ([2]float64, error) {
	data := c.input.GetData()
	if len(features) != len(data) {
		return [2]float64{}, fmt.Errorf("feature count mismatch: got %d, model expects %d", len(features), len(data))
	}
	for i, v := range features {
		data[i] = float32(v)
	}
	if err := c.session.Run(); err != nil {
		return [2]float64{}, fmt.Errorf("inference failed: %w", err)
	}
	out := c.output.GetData()
	return [2]float64{float64(out[0]), float64(out[1])}, nil
}

func (c *Classifier) Close() {
	if c.session != nil {
		c.session.Destroy()
	}
	if c.input != nil {
		c.input.Destroy()
	}
	if c.output != nil {
		c.output.Destroy()
	}
}
