package preview

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// reloadScript is the client side of the live reload loop: connect to the
// hub, reload on notice, reconnect after the server restarts.
const reloadScript = `(function() {
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + %q);
    ws.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      if (msg.command === "reload") { location.reload(); }
    };
    ws.onclose = function() { setTimeout(connect, 1000); };
  }
  connect();
})();`

// InjectReloadScript returns the document with the live reload client
// appended to its body. Content that does not parse as HTML, or parses
// without a body element, passes through unchanged.
func InjectReloadScript(content []byte, endpoint string) []byte {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return content
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		return content
	}

	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf(reloadScript, endpoint),
	})
	body.AppendChild(script)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return content
	}
	return buf.Bytes()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}
