package modules

import (
	"context"
	"html/template"

	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
)

type navbarView struct {
	TitleImage string
	TitleText  string
	Search     bool
	Pages      []page.Page
}

func navbar(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "navbar",
		Name:        "Navbar",
		Description: "Top navigation bar listing the site pages.",
		Parameters: []registry.ParamSpec{
			{Key: "titleImage", Type: parameter.TypeURL},
			{Key: "titleText"},
			{Key: "isSearchEnabled", Type: parameter.TypeBoolean},
			{Key: "pageFilter", Type: parameter.TypeExpression},
		},
		Render: func(_ context.Context, el registry.Element, req registry.Request) (template.HTML, error) {
			pages, err := d.pages(el.Parameters.Get("pageFilter"), req.User)
			if err != nil {
				return "", err
			}
			return execute("navbar", navbarView{
				TitleImage: el.Parameters.Get("titleImage"),
				TitleText:  el.Parameters.Get("titleText"),
				Search:     el.Parameters.Bool("isSearchEnabled"),
				Pages:      pages,
			})
		},
	}
}

type heroView struct {
	ID                  string
	Title               string
	Description         string
	Image               string
	PrimaryButtonText   string
	PrimaryButtonLink   string
	SecondaryButtonText string
	SecondaryButtonLink string
	Centered            bool
}

// HeroData is served to the hero on the client.
type HeroData struct {
	ModulesCount int `json:"modulesCount"`
}

func hero(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "hero",
		Name:        "Hero",
		Description: "Landing banner with a title, image and call to action buttons.",
		Parameters: []registry.ParamSpec{
			{Key: "title", Required: true},
			{Key: "description"},
			{Key: "image", Type: parameter.TypeURL},
			{Key: "primaryButtonText"},
			{Key: "primaryButtonLink", Type: parameter.TypeURL},
			{Key: "secondaryButtonText"},
			{Key: "secondaryButtonLink", Type: parameter.TypeURL},
			{Key: "viewType", SelectValues: []string{"default", "centered"}},
		},
		Loader: func(el registry.Element, _ registry.Request) (template.HTML, error) {
			p := el.Parameters
			if p.Get("title") == "" {
				return execute("module-error", errorView{Module: "hero", ID: el.ID})
			}
			return execute("hero", heroView{
				ID:                  el.ID,
				Title:               p.Get("title"),
				Description:         p.Get("description"),
				Image:               p.Get("image"),
				PrimaryButtonText:   p.Get("primaryButtonText"),
				PrimaryButtonLink:   p.Get("primaryButtonLink"),
				SecondaryButtonText: p.Get("secondaryButtonText"),
				SecondaryButtonLink: p.Get("secondaryButtonLink"),
				Centered:            p.Get("viewType") == "centered",
			})
		},
		Data: func(ctx context.Context, _ registry.Element, _ registry.Request) (any, error) {
			mods, err := d.Layouts.ListModules(ctx)
			if err != nil {
				return nil, err
			}
			return HeroData{ModulesCount: len(mods)}, nil
		},
	}
}

type errorView struct {
	Module string
	ID     string
}

type socialLink struct {
	Icon string
	URL  string
}

type footerView struct {
	Image     string
	Copyright string
	Pages     []page.Page
	Socials   []socialLink
	Email     string
	Phone     string
}

var footerSocials = []string{"youtube", "facebook", "instagram", "x", "linkedin", "github"}

func footer(d Deps) registry.Descriptor {
	params := []registry.ParamSpec{
		{Key: "copyrightText"},
		{Key: "image", Type: parameter.TypeURL},
	}
	for _, s := range footerSocials {
		params = append(params, registry.ParamSpec{Key: s, Type: parameter.TypeURL})
	}
	params = append(params,
		registry.ParamSpec{Key: "emailAddress"},
		registry.ParamSpec{Key: "phoneNumber"},
		registry.ParamSpec{Key: "pageFilter", Type: parameter.TypeExpression},
	)

	return registry.Descriptor{
		ShortName:   "footer",
		Name:        "Footer",
		Description: "Site footer with a page map, contact details and social links.",
		Parameters:  params,
		Loader: func(el registry.Element, req registry.Request) (template.HTML, error) {
			pages, err := d.pages(el.Parameters.Get("pageFilter"), req.User)
			if err != nil {
				return "", err
			}
			v := footerView{
				Image:     el.Parameters.Get("image"),
				Copyright: el.Parameters.Get("copyrightText"),
				Pages:     pages,
				Email:     el.Parameters.Get("emailAddress"),
				Phone:     el.Parameters.Get("phoneNumber"),
			}
			for _, s := range footerSocials {
				if u := el.Parameters.Get(s); u != "" {
					v.Socials = append(v.Socials, socialLink{Icon: s, URL: u})
				}
			}
			return execute("footer", v)
		},
	}
}

type signInView struct {
	Logo string
}

func signIn(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "sign-in",
		Name:        "Sign In",
		Description: "Sign in form giving access to the admin panel.",
		Parameters: []registry.ParamSpec{
			{Key: "isSignUpEnabled", Type: parameter.TypeBoolean},
		},
		Render: func(ctx context.Context, _ registry.Element, _ registry.Request) (template.HTML, error) {
			return execute("sign-in", signInView{Logo: d.config(ctx, parameter.KeyWebsiteLogo)})
		},
	}
}

type sidebarView struct {
	Open    bool
	Logo    string
	Links   []page.Page
	Version string
}

func adminSidebar(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "admin-sidebar",
		Name:        "Admin sidebar",
		Description: "Navigation drawer for the admin panel.",
		Parameters: []registry.ParamSpec{
			{Key: "isAlwaysVisible", Type: parameter.TypeBoolean},
		},
		Render: func(ctx context.Context, el registry.Element, req registry.Request) (template.HTML, error) {
			links, err := d.pages(`assignedFeature == "ADMIN"`, req.User)
			if err != nil {
				return "", err
			}
			return execute("admin-sidebar", sidebarView{
				Open:    el.Parameters.Bool("isAlwaysVisible"),
				Logo:    d.config(ctx, parameter.KeyWebsiteLogo),
				Links:   links,
				Version: d.Version,
			})
		},
	}
}

var _ PageSource = (*app.PageRegistry)(nil)
