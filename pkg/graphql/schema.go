package graphql

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"

	"fungible-token-demo/internal/app"
	"fungible-token-demo/internal/graph"
)

type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func NewHandler(resolver *graph.Resolver) http.Handler {
	schema, err := createSchema(resolver)
	if err != nil {
		panic(err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Error parsing request body", http.StatusBadRequest)
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		json.NewEncoder(w).Encode(result)
	})
}

// resolverError exposes the failure kind to clients as an error extension.
type resolverError struct {
	err error
}

func (e resolverError) Error() string { return e.err.Error() }

func (e resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"kind": app.KindOf(e.err).String()}
}

func resolved(v interface{}, err error) (interface{}, error) {
	if err != nil {
		return nil, resolverError{err: err}
	}
	return v, nil
}

func createSchema(resolver *graph.Resolver) (graphql.Schema, error) {
	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"loggedIn":        &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"account":         &graphql.Field{Type: graphql.String},
			"address":         &graphql.Field{Type: graphql.String},
			"balance":         &graphql.Field{Type: graphql.String},
			"recipient":       &graphql.Field{Type: graphql.String},
			"amount":          &graphql.Field{Type: graphql.String},
			"lastTransaction": &graphql.Field{Type: graphql.String},
			"lastError":       &graphql.Field{Type: graphql.String},
		},
	})

	walletType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Wallet",
		Fields: graphql.Fields{
			"address": &graphql.Field{
				Type: graphql.String,
			},
			"balance": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	transactionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Transaction",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"kind":        &graphql.Field{Type: graphql.String},
			"signer":      &graphql.Field{Type: graphql.String},
			"recipient":   &graphql.Field{Type: graphql.String},
			"amount":      &graphql.Field{Type: graphql.String},
			"submittedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	sessionArg := graphql.FieldConfigArgument{
		"session": &graphql.ArgumentConfig{
			Type: graphql.NewNonNull(graphql.ID),
		},
	}
	editArgs := graphql.FieldConfigArgument{
		"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		"value":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.Session(p.Args["id"].(string)))
				},
			},
			"wallet": &graphql.Field{
				Type: walletType,
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					address := p.Args["address"].(string)
					return resolved(resolver.GetWallet(p.Context, address))
				},
			},
			"transactions": &graphql.Field{
				Type: graphql.NewList(transactionType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{
						Type:         graphql.Int,
						DefaultValue: 20,
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, _ := p.Args["limit"].(int)
					return resolved(resolver.Transactions(p.Context, limit))
				},
			},
			"accounts": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Accounts(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSession": &graphql.Field{
				Type: sessionType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.CreateSession(), nil
				},
			},
			"closeSession": &graphql.Field{
				Type: graphql.Boolean,
				Args: sessionArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.CloseSession(p.Args["session"].(string)))
				},
			},
			"login": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"account": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.Login(graph.LoginArgs{
						Session: p.Args["session"].(string),
						Account: p.Args["account"].(string),
					}))
				},
			},
			"logout": &graphql.Field{
				Type: sessionType,
				Args: sessionArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.Logout(p.Args["session"].(string)))
				},
			},
			"editRecipient": &graphql.Field{
				Type: sessionType,
				Args: editArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.EditRecipient(graph.EditArgs{
						Session: p.Args["session"].(string),
						Value:   p.Args["value"].(string),
					}))
				},
			},
			"editAmount": &graphql.Field{
				Type: sessionType,
				Args: editArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.EditAmount(graph.EditArgs{
						Session: p.Args["session"].(string),
						Value:   p.Args["value"].(string),
					}))
				},
			},
			"refreshBalance": &graphql.Field{
				Type: sessionType,
				Args: sessionArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.RefreshBalance(p.Context, p.Args["session"].(string)))
				},
			},
			"setupVault": &graphql.Field{
				Type: transactionType,
				Args: sessionArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolved(resolver.SetupVault(p.Context, p.Args["session"].(string)))
				},
			},
			"transferTokens": &graphql.Field{
				Type: transactionType,
				Args: graphql.FieldConfigArgument{
					"session":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"recipient": &graphql.ArgumentConfig{Type: graphql.String},
					"amount":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					recipient, _ := p.Args["recipient"].(string)
					amount, _ := p.Args["amount"].(string)
					return resolved(resolver.TransferTokens(p.Context, graph.TransferArgs{
						Session:   p.Args["session"].(string),
						Recipient: recipient,
						Amount:    amount,
					}))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
