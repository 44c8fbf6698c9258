package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/globefolio/internal/core/domain"
	"github.com/samirrijal/globefolio/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	vec3Type := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vec3",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
			"z": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"label": &graphql.Field{Type: graphql.String},
			"color": &graphql.Field{Type: graphql.String},
			"point": &graphql.Field{Type: geoPointType},
		},
	})

	placementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Placement",
		Fields: graphql.Fields{
			"marker":       &graphql.Field{Type: markerType},
			"position":     &graphql.Field{Type: vec3Type},
			"front_facing": &graphql.Field{Type: graphql.Boolean},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frame",
		Fields: graphql.Fields{
			"sequence":   &graphql.Field{Type: graphql.Int},
			"rotation":   &graphql.Field{Type: graphql.Float},
			"camera":     &graphql.Field{Type: vec3Type},
			"placements": &graphql.Field{Type: graphql.NewList(placementType)},
			"visible":    &graphql.Field{Type: graphql.Int},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyMarker",
		Fields: graphql.Fields{
			"marker":      &graphql.Field{Type: markerType},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	podcastType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Podcast",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"title":         &graphql.Field{Type: graphql.String},
			"description":   &graphql.Field{Type: graphql.String},
			"duration":      &graphql.Field{Type: graphql.Int},
			"publish_date":  &graphql.Field{Type: graphql.DateTime},
			"category":      &graphql.Field{Type: graphql.String},
			"file_size":     &graphql.Field{Type: graphql.Float},
			"audio_url":     &graphql.Field{Type: graphql.String},
			"thumbnail_url": &graphql.Field{Type: graphql.String},
			"duration_text": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return usecases.FormatDuration(asPodcast(p.Source).DurationSeconds), nil
				},
			},
			"file_size_text": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return usecases.FormatFileSize(asPodcast(p.Source).FileSize), nil
				},
			},
		},
	})

	ebookType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ebook",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"title":        &graphql.Field{Type: graphql.String},
			"author":       &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
			"category":     &graphql.Field{Type: graphql.String},
			"publish_date": &graphql.Field{Type: graphql.DateTime},
			"reading_time": &graphql.Field{Type: graphql.Int},
			"content":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "The marker catalog",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Globe.Markers(), nil
				},
			},
			"marker": &graphql.Field{
				Type:        markerType,
				Description: "Get a marker by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Globe.Marker(p.Args["id"].(string))
				},
			},
			"nearest": &graphql.Field{
				Type:        graphql.NewList(nearbyType),
				Description: "Markers ordered by great-circle distance from a marker",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Globe.Nearest(p.Args["id"].(string), p.Args["limit"].(int))
				},
			},
			"project": &graphql.Field{
				Type:        vec3Type,
				Description: "Project a coordinate onto the globe",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Globe.Project(p.Args["lat"].(float64), p.Args["lon"].(float64), p.Args["radius"].(float64))
				},
			},
			"frame": &graphql.Field{
				Type:        frameType,
				Description: "Marker placements for a camera position and globe rotation",
				Args: graphql.FieldConfigArgument{
					"cx":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: deps.Orbit.Camera.X},
					"cy":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: deps.Orbit.Camera.Y},
					"cz":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: deps.Orbit.Camera.Z},
					"rotation": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					camera := domain.Vec3{
						X: p.Args["cx"].(float64),
						Y: p.Args["cy"].(float64),
						Z: p.Args["cz"].(float64),
					}
					return deps.Globe.Frame(domain.ViewState{Camera: camera}, p.Args["rotation"].(float64))
				},
			},
			"podcasts": &graphql.Field{
				Type:        graphql.NewList(podcastType),
				Description: "Podcast episodes, optionally filtered",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Podcasts.Search(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
			"podcast": &graphql.Field{
				Type:        podcastType,
				Description: "Get an episode by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Podcasts.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"ebooks": &graphql.Field{
				Type:        graphql.NewList(ebookType),
				Description: "Ebooks without content, optionally filtered",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Ebooks.Search(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
			"ebook": &graphql.Field{
				Type:        ebookType,
				Description: "Get an ebook by ID, including its markdown",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Ebooks.GetByID(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func asPodcast(src interface{}) domain.Podcast {
	switch p := src.(type) {
	case *domain.Podcast:
		return *p
	case domain.Podcast:
		return p
	}
	return domain.Podcast{}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "private, max-age=0")
		return c.JSON(result)
	}
}
