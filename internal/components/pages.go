package components

import (
	"github.com/a-h/templ"

	"github.com/BigLep01/CRMdev/internal/ui"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// toastScript removes flash toasts after their data-auto-dismiss delay.
const toastScript = `htmx.onLoad(function (el) {
  var toasts = el.matches && el.matches("[data-auto-dismiss]") ? [el] : el.querySelectorAll("[data-auto-dismiss]");
  toasts.forEach(function (t) { setTimeout(function () { t.remove(); }, +t.dataset.autoDismiss); });
});`

const pageStyle = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2328}
main{max-width:960px;margin:0 auto;padding:24px;display:grid;gap:16px}
.card{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.field{display:flex;gap:8px;align-items:center;padding:6px 0}
.field-label{width:140px;color:#59636e}
.field-error{color:#d1242f;margin:4px 0}
.skeleton{display:inline-block;width:120px;height:1em;background:#e6e8eb;border-radius:4px}
.metrics{display:flex;gap:16px}
.metric{flex:1;background:#fff;border-radius:8px;padding:16px}
.metric-value{display:block;font-size:1.6em;font-weight:600}
.avatar{border-radius:50%;vertical-align:middle;margin-right:6px}
#toasts{position:fixed;right:16px;bottom:16px;display:grid;gap:8px}
.toast{padding:8px 12px;border-radius:6px;background:#1f2328;color:#fff}
.table{width:100%;border-collapse:collapse}.table th,.table td{text-align:left;padding:6px 8px;border-bottom:1px solid #e6e8eb}
.htmx-indicator{display:none}.htmx-request .htmx-indicator,.htmx-request.htmx-indicator{display:inline}
.toast-error{background:#d1242f}.toast-success{background:#1a7f37}.toast-warning{background:#9a6700}
`

// Page wraps body in the HTML document shell.
func Page(title string, body templ.Component) templ.Component {
	return view(func(m *markup) {
		m.raw("<!DOCTYPE html>")
		m.open("html", templ.Attributes{"lang": "en"})
		m.open("head")
		m.open("meta", templ.Attributes{"charset": "utf-8"})
		m.open("meta", templ.Attributes{"name": "viewport", "content": "width=device-width, initial-scale=1"})
		m.elem("title", title+" · CRM")
		m.open("script", templ.Attributes{"src": htmxSrc})
		m.close("script")
		m.open("script")
		m.raw(toastScript)
		m.close("script")
		m.open("style")
		m.raw(pageStyle)
		m.close("style")
		m.close("head")

		m.open("body", templ.Attributes{"hx-boost": "true"})
		m.open("nav", class("topbar"))
		m.elem("a", "Dashboard", templ.Attributes{"href": "/"})
		m.close("nav")
		m.open("main")
		m.render(body)
		m.close("main")
		m.render(ui.ToastContainer())
		m.close("body")
		m.close("html")
	})
}

// DashboardPage renders the metrics above the prerendered companies list.
func (s *Set) DashboardPage(companies templ.Component) templ.Component {
	return Page("Dashboard", view(func(m *markup) {
		m.render(s.Metrics.Defer(MetricsProps{}, s.Metrics.Skeleton()))
		m.render(companies)
	}))
}

// CompanyPage renders the company title, details, contacts, deals and
// notes.
// Every part loads after the page itself, showing its skeleton meanwhile.
func (s *Set) CompanyPage(companyID string) templ.Component {
	return Page("Company", view(func(m *markup) {
		m.render(s.CompanyTitle.Defer(CompanyTitleProps{CompanyID: companyID}, s.CompanyTitle.Skeleton(companyID)))
		m.render(s.CompanyInfo.Defer(CompanyInfoProps{CompanyID: companyID}, s.CompanyInfo.Skeleton(companyID)))

		m.open("section", class("card contacts"))
		m.elem("h2", "Contacts", class("card-title"))
		m.render(s.Contacts.Defer(ContactsSelectProps{CompanyID: companyID}, s.Contacts.Skeleton()))
		m.close("section")

		m.render(s.Deals.Defer(DealsTableProps{CompanyID: companyID}, s.Deals.Skeleton()))
		m.render(s.Notes.Lazy(NotesProps{CompanyID: companyID}, s.Notes.Skeleton()))
	}))
}
