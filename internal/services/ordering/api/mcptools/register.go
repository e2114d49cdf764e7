package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ServerName identifies the MCP server to clients.
	ServerName = "tableside-ordering"
	// MenuResourceURI addresses the assembled menu resource.
	MenuResourceURI = "tableside://menu"
)

// Services bundles the ordering services the tools call.
type Services struct {
	Catalog CatalogLister
	Orders  OrderService
	Tables  TableTracker
}

func (s Services) validate() error {
	if s.Catalog == nil {
		return fmt.Errorf("catalog service is required")
	}
	if s.Orders == nil {
		return fmt.Errorf("order service is required")
	}
	if s.Tables == nil {
		return fmt.Errorf("table tracker is required")
	}
	return nil
}

// NewServer builds an MCP server with every ordering tool registered.
func NewServer(version string, services Services) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	if err := Register(server, services); err != nil {
		return nil, err
	}
	return server, nil
}

// Register adds the ordering tools and the menu resource to server.
func Register(server *mcp.Server, services Services) error {
	if server == nil {
		return fmt.Errorf("mcp server is required")
	}
	if err := services.validate(); err != nil {
		return err
	}

	mcp.AddTool(server, KitchenOrdersTool(), KitchenOrdersHandler(services.Orders))
	mcp.AddTool(server, TableOrdersTool(), TableOrdersHandler(services.Orders))
	mcp.AddTool(server, OrderStatusSetTool(), OrderStatusSetHandler(services.Orders))
	mcp.AddTool(server, ActiveTablesTool(), ActiveTablesHandler(services.Tables))
	mcp.AddTool(server, MenuListTool(), MenuListHandler(services.Catalog))
	server.AddResource(MenuResource(), MenuResourceHandler(services.Catalog))
	return nil
}

// MenuResource describes the menu resource.
func MenuResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "menu",
		Title:       "Menu",
		Description: "Menu grouped by category",
		MIMEType:    "application/json",
		URI:         MenuResourceURI,
	}
}

// MenuResourceHandler serves the assembled menu as JSON.
func MenuResourceHandler(menu CatalogLister) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := MenuResourceURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != MenuResourceURI {
			return nil, fmt.Errorf("unknown resource uri %q", uri)
		}

		categories, err := menu.ListCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("read menu: %w", err)
		}
		payload, err := json.MarshalIndent(MenuListResult{Categories: categories}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal menu: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      MenuResourceURI,
				MIMEType: "application/json",
				Text:     string(payload),
			}},
		}, nil
	}
}
