package opengl

import (
	"fmt"
	"strings"

	"polybatch/batch"
	"polybatch/gpu"
	"polybatch/selection"
)

// Fixed attribute locations, bound before linking so one VAO layout works
// with every program variant.
var attribLocations = map[string]uint32{
	gpu.AttrVertex:           0,
	gpu.AttrNormal:           1,
	gpu.AttrColor:            2,
	gpu.AttrTCoord:           3,
	gpu.AttrTangent:          4,
	gpu.AttrVertexID:         5,
	gpu.AttrCellColor:        6,
	gpu.AttrCellNormal:       7,
	batch.AttributeEdgeValue: 8,
}

// Texture units of the per primitive lookups.
var textureUnits = map[string]int32{
	batch.TextureCellColors:  1,
	batch.TextureCellNormals: 2,
	batch.TextureEdgeValues:  3,
}

const vertSrc = `
in vec3 vertexMC;
in vec3 normalMC;
in vec4 scalarColor;
#ifdef EXPANDED
in float vtkVertexID;
in vec4 cellColor;
#endif

uniform mat4 MCDCMatrix;
uniform mat4 MCWCNormalMatrix;
uniform float pointSize;
uniform int vertsPerPrimitive;
uniform int lineInstances;
uniform vec2 lineWidthNVC;

out vec3 normalWC;
out vec4 pointColorVS;
flat out int vertexIDVS;
#ifdef EXPANDED
out vec4 cellColorVS;
flat out int primitiveIDVS;
#endif

void main() {
	gl_Position = MCDCMatrix * vec4(vertexMC, 1.0);
	normalWC = (MCWCNormalMatrix * vec4(normalMC, 0.0)).xyz;
	pointColorVS = scalarColor;
#ifdef EXPANDED
	vertexIDVS = int(vtkVertexID);
	cellColorVS = cellColor;
	primitiveIDVS = gl_VertexID / max(vertsPerPrimitive, 1);
	if (lineInstances > 1) {
		float step = float(gl_InstanceID / 2) - float(lineInstances) / 4.0;
		vec2 dir = (gl_InstanceID % 2 == 0) ? vec2(1.0, 0.0) : vec2(0.0, 1.0);
		gl_Position.xy += dir * step * lineWidthNVC * gl_Position.w;
	}
#else
	vertexIDVS = gl_VertexID;
#endif
}
`

const fragSrc = `
in vec3 normalWC;
in vec4 pointColorVS;
flat in int vertexIDVS;
#ifdef EXPANDED
in vec4 cellColorVS;
flat in int primitiveIDVS;
#else
uniform samplerBuffer textureC;
uniform samplerBuffer textureN;
#endif

uniform int PrimitiveIDOffset;
uniform float opacityUniform;
uniform vec3 ambientColorUniform;
uniform vec3 diffuseColorUniform;
uniform int OverridesColor;
uniform int pointScalarsUsed;
uniform int cellScalarsUsed;
uniform int cellNormalsUsed;
#ifdef PICKING
uniform vec3 mapperIndex;
uniform int selectionPass;
#endif

out vec4 fragOutput;

vec3 encodeID(int id) {
	return vec3(float(id & 255), float((id >> 8) & 255), float((id >> 16) & 255)) / 255.0;
}

void main() {
#ifdef EXPANDED
	int primID = primitiveIDVS + PrimitiveIDOffset;
#else
	int primID = gl_PrimitiveID + PrimitiveIDOffset;
#endif

#ifdef PICKING
	if (selectionPass == POINT_ID_LOW) {
		fragOutput = vec4(encodeID(vertexIDVS), 1.0);
	} else if (selectionPass == POINT_ID_HIGH) {
		fragOutput = vec4(float((vertexIDVS >> 24) & 255) / 255.0, 0.0, 0.0, 1.0);
	} else if (selectionPass == CELL_ID_LOW) {
		fragOutput = vec4(encodeID(primID), 1.0);
	} else if (selectionPass == CELL_ID_HIGH) {
		fragOutput = vec4(float((primID >> 24) & 255) / 255.0, 0.0, 0.0, 1.0);
	} else {
		fragOutput = vec4(mapperIndex, 1.0);
	}
	return;
#endif

	vec4 color = vec4(diffuseColorUniform, opacityUniform);
	vec3 ambient = ambientColorUniform;
	if (OverridesColor == 0) {
#ifdef EXPANDED
		if (cellScalarsUsed == 1) {
			color = vec4(cellColorVS.rgb, cellColorVS.a * opacityUniform);
			ambient = cellColorVS.rgb;
		}
#else
		if (cellScalarsUsed == 1) {
			vec4 c = texelFetch(textureC, primID);
			color = vec4(c.rgb, c.a * opacityUniform);
			ambient = c.rgb;
		}
#endif
		if (cellScalarsUsed == 0 && pointScalarsUsed == 1) {
			color = vec4(pointColorVS.rgb, pointColorVS.a * opacityUniform);
			ambient = pointColorVS.rgb;
		}
	}

	vec3 n = normalWC;
#ifndef EXPANDED
	if (cellNormalsUsed == 1) {
		n = texelFetch(textureN, primID).xyz;
	}
#endif
	if (dot(n, n) < 1e-12) {
		fragOutput = color;
		return;
	}
	n = normalize(n);
	float df = abs(dot(n, normalize(vec3(0.3, 0.5, 0.8))));
	fragOutput = vec4(ambient * 0.25 + color.rgb * df * 0.75, color.a);
}
`

// shaderSource prefixes src with the version line and the defines of key.
func shaderSource(src string, key gpu.ProgramKey) string {
	var b strings.Builder
	b.WriteString("#version 410 core\n")
	fmt.Fprintf(&b, "#define POINT_ID_LOW %d\n#define POINT_ID_HIGH %d\n", selection.PointIDLow24, selection.PointIDHigh24)
	fmt.Fprintf(&b, "#define CELL_ID_LOW %d\n#define CELL_ID_HIGH %d\n", selection.CellIDLow24, selection.CellIDHigh24)
	define := func(on bool, name string) {
		if on {
			b.WriteString("#define " + name + "\n")
		}
	}
	define(key.Picking, "PICKING")
	define(key.PointPicking, "POINT_PICKING")
	define(key.CellScalars, "CELL_SCALARS")
	define(key.CellNormals, "CELL_NORMALS")
	define(key.Expanded, "EXPANDED")
	b.WriteString(src)
	b.WriteString("\x00")
	return b.String()
}
