package recorder

import "fmt"

// captureScriptTemplate is injected into the page on recording start, and
// again via an init script on every subsequent navigation (spec.md §4.8).
// It is content, not logic: the daemon's job is to ship this blob verbatim
// and drain what it produces, not to re-implement DOM capture in Go
// (spec.md §9 DESIGN NOTES: "the in-page recorder is inherently
// JavaScript-resident").
const captureScriptTemplate = `(() => {
  if (window.__ccRecorderActive) { window.__ccRecorderBeaconPort = %d; return; }
  window.__ccRecorderActive = true;
  window.__ccRecorderBeaconPort = %d;
  window.__ccRecorderEvents = window.__ccRecorderEvents || [];

  const push = (ev) => window.__ccRecorderEvents.push(ev);

  function roleOf(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const tag = el.tagName.toLowerCase();
    const type = (el.getAttribute('type') || '').toLowerCase();
    if (tag === 'a' && el.hasAttribute('href')) return 'link';
    if (tag === 'button' || type === 'button' || type === 'submit') return 'button';
    if (tag === 'select') return 'combobox';
    if (tag === 'textarea' || (tag === 'input' && !['checkbox','radio','button','submit'].includes(type))) return 'textbox';
    if (tag === 'input' && type === 'checkbox') return 'checkbox';
    if (tag === 'input' && type === 'radio') return 'radio';
    return '';
  }

  function accessibleName(el) {
    const labelledBy = el.getAttribute('aria-labelledby');
    if (labelledBy) {
      const ref = document.getElementById(labelledBy);
      if (ref && ref.textContent.trim()) return ref.textContent.trim();
    }
    if (el.getAttribute('aria-label')) return el.getAttribute('aria-label');
    if (el.id) {
      const label = document.querySelector('label[for="' + el.id + '"]');
      if (label && label.textContent.trim()) return label.textContent.trim();
    }
    if (el.placeholder) return el.placeholder;
    if (el.alt) return el.alt;
    const text = (el.textContent || '').trim();
    if (text && text.length <= 80) return text;
    return '';
  }

  function cssPath(el) {
    const parts = [];
    let node = el;
    while (node && node.nodeType === 1 && node !== document.body) {
      let part = node.tagName.toLowerCase();
      const parent = node.parentElement;
      if (parent) {
        const siblings = Array.from(parent.children).filter((c) => c.tagName === node.tagName);
        if (siblings.length > 1) {
          part += ':nth-of-type(' + (siblings.indexOf(node) + 1) + ')';
        }
      }
      parts.unshift(part);
      node = parent;
    }
    return parts.join(' > ');
  }

  function classSelector(el) {
    const tag = el.tagName.toLowerCase();
    const cls = (el.getAttribute('class') || '').trim().split(/\s+/).filter(Boolean);
    if (cls.length === 0) return tag;
    return tag + '.' + cls.slice(0, 2).join('.');
  }

  function buildLocators(el) {
    const locators = [];
    const role = roleOf(el);
    const name = accessibleName(el);
    if (role) locators.push({ strategy: 'role', role: role, name: name || undefined });
    const text = (el.textContent || '').trim();
    if (text && text.length >= 1 && text.length <= 80) locators.push({ strategy: 'text', text: text });
    locators.push({ strategy: 'selector', selector: classSelector(el) });
    locators.push({ strategy: 'cssPath', path: cssPath(el) });
    return locators;
  }

  document.addEventListener('click', (e) => {
    const el = e.target;
    if (!(el instanceof Element)) return;
    push({ type: 'click', locators: buildLocators(el), ts: Date.now() });
  }, true);

  let typeBuf = null; // { locators, value, timer }
  function flushType() {
    if (!typeBuf) return;
    push({ type: 'type', locators: typeBuf.locators, value: typeBuf.value, ts: Date.now() });
    typeBuf = null;
  }

  document.addEventListener('input', (e) => {
    const el = e.target;
    if (!(el instanceof Element) || typeof el.value !== 'string' || el.tagName === 'SELECT') return;
    if (!typeBuf || typeBuf.el !== el) {
      flushType();
      typeBuf = { el: el, locators: buildLocators(el), value: el.value };
    } else {
      typeBuf.value = el.value;
    }
    clearTimeout(typeBuf.timer);
    typeBuf.timer = setTimeout(flushType, 500);
  }, true);

  document.addEventListener('change', (e) => {
    const el = e.target;
    if (!(el instanceof Element) || el.tagName !== 'SELECT') return;
    push({ type: 'select', locators: buildLocators(el), value: el.value, ts: Date.now() });
  }, true);

  document.addEventListener('focusout', () => flushType(), true);

  document.addEventListener('keydown', (e) => {
    if (['Enter', 'Escape', 'Tab'].includes(e.key)) {
      flushType();
      const el = e.target instanceof Element ? e.target : null;
      push({ type: 'keypress', key: e.key, locators: el ? buildLocators(el) : [], ts: Date.now() });
    } else {
      flushType();
    }
  }, true);

  let scrollTimer = null;
  document.addEventListener('scroll', () => {
    clearTimeout(scrollTimer);
    scrollTimer = setTimeout(() => {
      push({ type: 'scroll', scrollX: window.scrollX, scrollY: window.scrollY, ts: Date.now() });
    }, 300);
  }, true);

  window.addEventListener('beforeunload', () => {
    flushType();
    if (window.__ccRecorderEvents.length > 0 && navigator.sendBeacon) {
      navigator.sendBeacon(
        'http://127.0.0.1:' + window.__ccRecorderBeaconPort + '/record/beacon',
        JSON.stringify(window.__ccRecorderEvents)
      );
      window.__ccRecorderEvents = [];
    }
  });

  window.__ccRecorderDrain = () => {
    const events = window.__ccRecorderEvents;
    window.__ccRecorderEvents = [];
    return events;
  };
})()`

// captureScript renders the template with the daemon's beacon port.
func captureScript(beaconPort int) string {
	return fmt.Sprintf(captureScriptTemplate, beaconPort, beaconPort)
}
