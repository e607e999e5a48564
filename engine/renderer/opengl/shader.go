package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type shaderProgram struct {
	name       string
	id         uint32
	model      int32
	view       int32
	projection int32
	sampler    int32
}

func newShaderProgram(name, vertexSource, fragmentSource string) (*shaderProgram, error) {
	vertex, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("shader '%s' vertex stage: %w", name, err)
	}
	defer gl.DeleteShader(vertex)

	fragment, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("shader '%s' fragment stage: %w", name, err)
	}
	defer gl.DeleteShader(fragment)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("shader '%s' failed to link: %s", name, log)
	}

	return &shaderProgram{
		name:       name,
		id:         program,
		model:      gl.GetUniformLocation(program, gl.Str("model\x00")),
		view:       gl.GetUniformLocation(program, gl.Str("view\x00")),
		projection: gl.GetUniformLocation(program, gl.Str("projection\x00")),
		sampler:    gl.GetUniformLocation(program, gl.Str("diffuse\x00")),
	}, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile: %s", log)
	}
	return shader, nil
}

func (s *shaderProgram) use() {
	gl.UseProgram(s.id)
}

func (s *shaderProgram) setMatrices(model, view, projection mgl32.Mat4) {
	gl.UniformMatrix4fv(s.model, 1, false, &model[0])
	gl.UniformMatrix4fv(s.view, 1, false, &view[0])
	gl.UniformMatrix4fv(s.projection, 1, false, &projection[0])
}

func (s *shaderProgram) destroy() {
	gl.DeleteProgram(s.id)
	s.id = 0
}
