package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Surface is the window side of the context: whoever owns the GL context
// presents the back buffer.
type Surface interface {
	MakeContextCurrent()
	SwapBuffers()
}

type OpenGLRenderer struct {
	surface Surface

	textured *shaderProgram
	flat     *shaderProgram

	vao        uint32
	vbo        uint32
	quadEBO    uint32
	outlineEBO uint32

	bound metadata.TextureHandle

	frameNumber uint64
	clearColor  metadata.Color
}

func New(surface Surface) *OpenGLRenderer {
	return &OpenGLRenderer{
		surface:    surface,
		clearColor: metadata.ColorBlack,
	}
}

func (r *OpenGLRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	r.surface.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("func Initialize - failed to load OpenGL: %w", err)
	}
	core.LogInfo("OpenGL %s initialized for '%s'", gl.GoStr(gl.GetString(gl.VERSION)), appName)

	var err error
	if r.textured, err = newShaderProgram("builtin.textured", vertexShaderSource, texturedFragmentShaderSource); err != nil {
		return err
	}
	if r.flat, err = newShaderProgram("builtin.flat", vertexShaderSource, flatFragmentShaderSource); err != nil {
		return err
	}
	r.textured.use()
	gl.Uniform1i(r.textured.sampler, 0)

	r.createQuadBuffers()

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	return r.Resized(appWidth, appHeight)
}

func (r *OpenGLRenderer) createQuadBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, metadata.CornerCount*metadata.VertexStride, nil, gl.DYNAMIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, metadata.VertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, metadata.VertexStride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, metadata.VertexStride, 7*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &r.outlineEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.outlineEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(metadata.OutlineIndices)*4, gl.Ptr(metadata.OutlineIndices), gl.STATIC_DRAW)

	// the quad EBO is bound last so it stays the VAO default
	gl.GenBuffers(1, &r.quadEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.quadEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(metadata.QuadIndices)*4, gl.Ptr(metadata.QuadIndices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
}

func (r *OpenGLRenderer) Shutdown() error {
	gl.DeleteBuffers(1, &r.quadEBO)
	gl.DeleteBuffers(1, &r.outlineEBO)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
	if r.textured != nil {
		r.textured.destroy()
	}
	if r.flat != nil {
		r.flat.destroy()
	}
	return nil
}

func (r *OpenGLRenderer) Resized(width, height uint32) error {
	gl.Viewport(0, 0, int32(width), int32(height))
	return checkError("Resized")
}

func (r *OpenGLRenderer) BeginFrame(deltaTime float64) error {
	gl.ClearColor(r.clearColor.R, r.clearColor.G, r.clearColor.B, r.clearColor.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (r *OpenGLRenderer) EndFrame(deltaTime float64) error {
	r.surface.SwapBuffers()
	r.frameNumber++
	return checkError("EndFrame")
}

func (r *OpenGLRenderer) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	format, internal, err := textureFormat(texture)
	if err != nil {
		return err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(texture.Width), int32(texture.Height), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("TextureCreate"); err != nil {
		gl.DeleteTextures(1, &id)
		return err
	}
	texture.Handle = metadata.TextureHandle(id)
	texture.Generation++
	return nil
}

func (r *OpenGLRenderer) TextureDestroy(texture *metadata.Texture) {
	id := uint32(texture.Handle)
	gl.DeleteTextures(1, &id)
}

func (r *OpenGLRenderer) TextureWriteData(texture *metadata.Texture, pixels []uint8) error {
	format, internal, err := textureFormat(texture)
	if err != nil {
		return err
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture.Handle))
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(texture.Width), int32(texture.Height), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("TextureWriteData"); err != nil {
		return err
	}
	texture.Generation++
	return nil
}

func textureFormat(texture *metadata.Texture) (uint32, int32, error) {
	switch texture.ChannelCount {
	case 4:
		return gl.RGBA, gl.RGBA8, nil
	case 3:
		return gl.RGB, gl.RGB8, nil
	default:
		return 0, 0, fmt.Errorf("unsupported channel count %d for texture '%s'", texture.ChannelCount, texture.Name)
	}
}

func (r *OpenGLRenderer) TextureBind(handle metadata.TextureHandle) error {
	if !handle.IsValid() {
		return fmt.Errorf("cannot bind an invalid texture handle")
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(handle))
	r.bound = handle
	return nil
}

func (r *OpenGLRenderer) TextureUnbind() {
	gl.BindTexture(gl.TEXTURE_2D, 0)
	r.bound = metadata.InvalidTextureHandle
}

func (r *OpenGLRenderer) Draw(cmd *metadata.DrawCommand) error {
	program := r.flat
	if cmd.Textured {
		program = r.textured
	}
	program.use()
	program.setMatrices(cmd.Model, cmd.View, cmd.Projection)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, metadata.CornerCount*metadata.VertexStride, gl.Ptr(&cmd.Vertices[0].Position[0]))

	switch cmd.Topology {
	case metadata.PrimitiveTopologyLines:
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.outlineEBO)
		gl.DrawElements(gl.LINES, int32(len(metadata.OutlineIndices)), gl.UNSIGNED_INT, gl.PtrOffset(0))
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.quadEBO)
	default:
		gl.DrawElements(gl.TRIANGLES, int32(len(metadata.QuadIndices)), gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)

	return checkError("Draw")
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: OpenGL error 0x%x", op, code)
	}
	return nil
}
