// Package ui is a small component runtime for server-rendered pages driven
// by HTMX and templ.
//
// Components embed *Component[P] where P is the props type. Props carry
// only identifiers and view state (which field is open, the current search
// term); everything else is rebuilt by Hydrate on each request.
//
//	type Notes struct {
//	    *ui.Component[NotesProps]
//	    store query.Collaborator
//	}
//
// # Lifecycle
//
// A request to a component route decodes the "p" parameter into props,
// calls Hydrate, runs the named action (or nothing for the default GET
// render), applies the returned Result and finally calls Render with the
// resulting props.
//
//	c.Action("commit", c.commit)
//	c.Action("activate", c.activate).Method(http.MethodGet)
//
// # Security
//
// Props are signed (HMAC, readable but tamper-proof) or, for components
// marked Sensitive, encrypted with AES-GCM. Mutating requests must carry
// the HX-Request header, which a cross-origin form cannot set.
//
// # Communication
//
// Actions announce changes with Result.Trigger; other components subscribe
// in their markup with c.Refresh(props).OnEvent("company:updated"). Flash
// messages become toasts appended to the #toasts container.
//
// # Registration
//
//	reg := ui.NewRegistry(key, ui.WithLogger(log))
//	reg.Add(companyInfo, notes)
//	router.Handle("/_c/*", reg.Handler())
package ui
