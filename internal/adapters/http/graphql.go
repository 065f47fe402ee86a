package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services. Fields
// resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	enrichmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Enrichment",
		Fields: graphql.Fields{
			"region":          &graphql.Field{Type: graphql.String},
			"transit_stop":    &graphql.Field{Type: graphql.String},
			"transit_km":      &graphql.Field{Type: graphql.Float},
			"walking_minutes": &graphql.Field{Type: graphql.Float},
			"near_transit":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	listingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Listing",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"url":           &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"price":         &graphql.Field{Type: graphql.Float},
			"location":      &graphql.Field{Type: graphql.String},
			"area":          &graphql.Field{Type: graphql.String},
			"posted_at":     &graphql.Field{Type: graphql.DateTime},
			"has_image":     &graphql.Field{Type: graphql.Boolean},
			"geotag":        &graphql.Field{Type: geoPointType},
			"photo_url":     &graphql.Field{Type: graphql.String},
			"map_image_url": &graphql.Field{Type: graphql.String},
			"enrichment":    &graphql.Field{Type: enrichmentType},
			"distance":      &graphql.Field{Type: graphql.Float},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"bounds": &graphql.Field{
				Type: graphql.NewObject(graphql.ObjectConfig{
					Name: "Bounds",
					Fields: graphql.Fields{
						"min_lat": &graphql.Field{Type: graphql.Float},
						"min_lon": &graphql.Field{Type: graphql.Float},
						"max_lat": &graphql.Field{Type: graphql.Float},
						"max_lon": &graphql.Field{Type: graphql.Float},
					},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, _ := p.Source.(domain.Region)
					return r.Bounds(), nil
				},
			},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransitStop",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"listings": &graphql.Field{
				Type:        graphql.NewList(listingType),
				Description: "Listings newest first",
				Args: graphql.FieldConfigArgument{
					"area":        &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"region":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"nearTransit": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"offset":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":       &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page, err := deps.Listings.List(p.Context, domain.ListingFilter{
						Area:            p.Args["area"].(string),
						Region:          p.Args["region"].(string),
						NearTransitOnly: p.Args["nearTransit"].(bool),
						Offset:          p.Args["offset"].(int),
						Limit:           p.Args["limit"].(int),
					})
					if err != nil {
						return nil, err
					}
					return page.Listings, nil
				},
			},
			"listing": &graphql.Field{
				Type:        listingType,
				Description: "Get a listing by post ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					l, err := deps.Listings.GetByID(p.Context, p.Args["id"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return l, err
				},
			},
			"listingsNearby": &graphql.Field{
				Type:        graphql.NewList(listingType),
				Description: "Geotagged listings near a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Listings.FindNearby(p.Context,
						p.Args["lat"].(float64), p.Args["lon"].(float64),
						p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"enrich": &graphql.Field{
				Type:        enrichmentType,
				Description: "Region and nearest transit for a point and neighborhood label",
				Args: graphql.FieldConfigArgument{
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"label": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.POI.Resolve(pt, p.Args["label"].(string)), nil
				},
			},
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "Configured regions in declaration order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.POI.Regions(), nil
				},
			},
			"transitStops": &graphql.Field{
				Type:        graphql.NewList(stopType),
				Description: "Configured transit stops",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.POI.TransitStops(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
