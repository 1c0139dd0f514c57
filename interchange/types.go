package interchange

// Type tags of the interchange graph.
const (
	TypeBase       = "Base"
	TypeReference  = "reference"
	TypeCollection = "Speckle.Core.Models.Collection"

	TypePoint     = "Objects.Geometry.Point"
	TypeVector    = "Objects.Geometry.Vector"
	TypePlane     = "Objects.Geometry.Plane"
	TypeLine      = "Objects.Geometry.Line"
	TypePolyline  = "Objects.Geometry.Polyline"
	TypeArc       = "Objects.Geometry.Arc"
	TypeCircle    = "Objects.Geometry.Circle"
	TypeEllipse   = "Objects.Geometry.Ellipse"
	TypePolycurve = "Objects.Geometry.Polycurve"
	TypeMesh      = "Objects.Geometry.Mesh"

	TypePolygon     = "Objects.GIS.PolygonGeometry"
	TypeFeature     = "Objects.GIS.GisFeature"
	TypeCRS         = "Objects.GIS.CRS"
	TypeVectorLayer = "Objects.GIS.VectorLayer"
	TypeRasterLayer = "Objects.GIS.RasterLayer"
	TypeLegacyLayer = "Objects.GIS.Layer"
	TypeRenderer    = "Objects.GIS.RendererDescriptor"
	TypeExtent      = "Objects.GIS.Extent"
)

// Geometry kinds carried by vector layers.
const (
	KindPoint   = "Point"
	KindLine    = "LineString"
	KindPolygon = "Polygon"
	KindMesh    = "Mesh"
	KindNoGeom  = "None"
	KindRaster  = "Raster"
)
