package browse

// initScript runs before any page script on every document. It wraps
// Element.prototype.attachShadow and HTMLElement.prototype.attachInternals
// so that every shadow root (open or closed) and every ElementInternals
// object created by the page stays reachable for the capture script.
// Installing the wrapper twice in the same realm is a setup error and
// fails loudly instead of double-wrapping.
const initScript = `(() => {
	if (window.__axdom) {
		throw new Error('axdom interception installed twice');
	}
	const state = {
		roots: new Map(),     // host Element -> ShadowRoot
		internals: new Map(), // host Element -> ElementInternals
	};
	window.__axdom = state;

	const origAttachShadow = Element.prototype.attachShadow;
	Element.prototype.attachShadow = function (init) {
		const root = origAttachShadow.call(this, init);
		state.roots.set(this, root);
		return root;
	};

	if (HTMLElement.prototype.attachInternals) {
		const origAttachInternals = HTMLElement.prototype.attachInternals;
		HTMLElement.prototype.attachInternals = function () {
			const internals = origAttachInternals.call(this);
			state.internals.set(this, internals);
			return internals;
		};
	}
})();`

// captureScript serializes the full document including shadow trees.
// Shadow content is emitted inline as <template shadowrootmode="open">
// as the first child of its host, so the Go side can rebuild the
// host/root association. Every element gets a data-axdom-i preorder
// index and is kept in window.__axdom.byIndex, which lets the Go side
// map a snapshot match back to the live element. Elements whose
// computed style resolves to display:none or visibility:hidden are
// stamped data-axdom-hidden, carrying stylesheet-driven hiding into the
// snapshot where markup alone cannot express it.
//
// Returns a JSON string {html, overrides, url} where overrides carries
// the ElementInternals defaults recorded by the init hook, keyed by
// element index.
const captureScript = `() => {
	const state = window.__axdom || { roots: new Map(), internals: new Map() };
	state.byIndex = [];

	const VOID = new Set(['area','base','br','col','embed','hr','img','input',
		'link','meta','param','source','track','wbr']);

	const escText = (s) => s.replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;');
	const escAttr = (s) => escText(s).replace(/"/g, '&quot;');

	const index = (el) => {
		state.byIndex.push(el);
		return state.byIndex.length - 1;
	};

	const serialize = (node, out) => {
		if (node.nodeType === Node.TEXT_NODE) {
			out.push(escText(node.data));
			return;
		}
		if (node.nodeType === Node.COMMENT_NODE || node.nodeType === Node.DOCUMENT_TYPE_NODE) {
			return;
		}
		if (node.nodeType !== Node.ELEMENT_NODE) {
			for (const c of node.childNodes) serialize(c, out);
			return;
		}
		const tag = node.localName;
		const i = index(node);
		out.push('<' + tag);
		out.push(' data-axdom-i="' + i + '"');
		const cs = getComputedStyle(node);
		if (cs.display === 'none' || cs.visibility === 'hidden') {
			out.push(' data-axdom-hidden=""');
		}
		for (const a of node.attributes) {
			if (a.name === 'data-axdom-i' || a.name === 'data-axdom-hidden') continue;
			out.push(' ' + a.name + '="' + escAttr(a.value) + '"');
		}
		out.push('>');
		if (VOID.has(tag)) return;
		if (tag === 'script' || tag === 'style') {
			out.push('</' + tag + '>');
			return;
		}
		const root = node.shadowRoot || state.roots.get(node);
		if (root) {
			out.push('<template shadowrootmode="open">');
			for (const c of root.childNodes) serialize(c, out);
			out.push('</template>');
		}
		for (const c of node.childNodes) serialize(c, out);
		out.push('</' + tag + '>');
	};

	const out = [];
	serialize(document.documentElement, out);

	const overrides = [];
	for (const [el, internals] of state.internals) {
		const rec = { index: state.byIndex.indexOf(el), role: '', label: '', labelRefs: [] };
		if (rec.index < 0) continue;
		if (internals.role) rec.role = internals.role;
		if (internals.ariaLabel) rec.label = internals.ariaLabel;
		const refs = internals.ariaLabelledByElements;
		if (refs) {
			for (const ref of refs) {
				const ri = state.byIndex.indexOf(ref);
				if (ri >= 0) rec.labelRefs.push(ri);
			}
		}
		overrides.push(rec);
	}

	return JSON.stringify({ html: out.join(''), overrides, url: document.location.href });
}`
