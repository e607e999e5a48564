package opengl

const vertexShaderSource = `
#version 410 core

layout (location = 0) in vec3 in_position;
layout (location = 1) in vec4 in_color;
layout (location = 2) in vec2 in_texcoord;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec4 frag_color;
out vec2 frag_texcoord;

void main() {
	frag_color = in_color;
	frag_texcoord = in_texcoord;
	gl_Position = projection * view * model * vec4(in_position, 1.0);
}
` + "\x00"

const texturedFragmentShaderSource = `
#version 410 core

in vec4 frag_color;
in vec2 frag_texcoord;

uniform sampler2D diffuse;

out vec4 out_color;

void main() {
	out_color = texture(diffuse, frag_texcoord) * frag_color;
}
` + "\x00"

const flatFragmentShaderSource = `
#version 410 core

in vec4 frag_color;
in vec2 frag_texcoord;

out vec4 out_color;

void main() {
	out_color = frag_color;
}
` + "\x00"
