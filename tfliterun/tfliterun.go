// Package tfliterun loads TensorFlow Lite models through the TensorFlow Lite C API, for the export
// verifier.
package tfliterun

import (
	"fmt"

	"github.com/mattn/go-tflite"
	"github.com/pkg/errors"

	"github.com/pothole-detection/yolods"
)

// Runtime implements yolods.InferenceRuntime.
type Runtime struct {
	NumThreads int
}

// Load loads the model at path and allocates its tensors.
func (rt Runtime) Load(path string) (yolods.InferenceSession, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, errors.Errorf("cannot load model %q", path)
	}

	options := tflite.NewInterpreterOptions()
	threads := rt.NumThreads
	if threads <= 0 {
		threads = 1
	}
	options.SetNumThread(threads)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return nil, errors.Errorf("cannot create interpreter for %q", path)
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		options.Delete()
		model.Delete()
		return nil, errors.Errorf("tensor allocation failed for %q", path)
	}

	return &session{model: model, options: options, interp: interp}, nil
}

type session struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
}

func (s *session) Inputs() []yolods.TensorInfo {
	n := s.interp.GetInputTensorCount()
	infos := make([]yolods.TensorInfo, 0, n)
	for i := 0; i < n; i++ {
		infos = append(infos, tensorInfo(s.interp.GetInputTensor(i)))
	}
	return infos
}

func (s *session) Outputs() []yolods.TensorInfo {
	n := s.interp.GetOutputTensorCount()
	infos := make([]yolods.TensorInfo, 0, n)
	for i := 0; i < n; i++ {
		infos = append(infos, tensorInfo(s.interp.GetOutputTensor(i)))
	}
	return infos
}

func (s *session) Run(input []float32) ([]int, error) {
	in := s.interp.GetInputTensor(0)
	if in.Type() != tflite.Float32 {
		return nil, errors.Errorf("unsupported input type %s", typeName(in.Type()))
	}
	dst := in.Float32s()
	if len(dst) != len(input) {
		return nil, errors.Errorf("input has %d elements, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if status := s.interp.Invoke(); status != tflite.OK {
		return nil, errors.New("invoke failed")
	}
	return shape(s.interp.GetOutputTensor(0)), nil
}

func (s *session) Close() {
	s.interp.Delete()
	s.options.Delete()
	s.model.Delete()
}

func shape(t *tflite.Tensor) []int {
	dims := make([]int, t.NumDims())
	for i := range dims {
		dims[i] = t.Dim(i)
	}
	return dims
}

func tensorInfo(t *tflite.Tensor) yolods.TensorInfo {
	return yolods.TensorInfo{
		Name:  t.Name(),
		Shape: shape(t),
		DType: typeName(t.Type()),
	}
}

func typeName(t tflite.TensorType) string {
	switch t {
	case tflite.Float32:
		return "float32"
	case tflite.Int32:
		return "int32"
	case tflite.UInt8:
		return "uint8"
	case tflite.Int64:
		return "int64"
	case tflite.Int16:
		return "int16"
	case tflite.Int8:
		return "int8"
	case tflite.Bool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}
