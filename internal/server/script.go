// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

// appScript drives the page. It only reads IDs and indexes from data
// attributes and refreshes server-rendered HTML after each change.
const appScript = `(function () {
  'use strict';

  const $ = (sel) => document.querySelector(sel);
  const messages = $('#messages');
  const input = $('#input');

  async function api(method, path, body) {
    const opts = { method: method, headers: {} };
    if (body instanceof FormData) {
      opts.body = body;
    } else if (body !== undefined) {
      opts.headers['Content-Type'] = 'application/json';
      opts.body = JSON.stringify(body);
    }
    const res = await fetch(path, opts);
    if (res.status === 204) return null;
    const type = res.headers.get('Content-Type') || '';
    const data = type.includes('application/json') ? await res.json() : await res.text();
    if (!res.ok) {
      const msg = data && data.error ? data.error.message : res.statusText;
      throw new Error(msg);
    }
    return data;
  }

  function fail(err) {
    window.alert(err.message || String(err));
  }

  function activeID() {
    return messages.dataset.conversationId;
  }

  async function refreshMessages(loading) {
    const id = activeID();
    if (!id) return;
    messages.innerHTML = await api('GET', '/api/conversations/' + encodeURIComponent(id) + '/html');
    if (loading) {
      const dots = document.createElement('div');
      dots.className = 'message assistant loading';
      dots.innerHTML = '<div class="loading-dots"><span class="dot"></span><span class="dot"></span><span class="dot"></span></div>';
      messages.appendChild(dots);
    }
    messages.scrollTop = messages.scrollHeight;
  }

  function reload() {
    window.location.reload();
  }

  async function send() {
    const text = input.value;
    input.value = '';
    $('#send').disabled = true;
    try {
      const pending = api('POST', '/api/messages', { text: text });
      await refreshMessages(true);
      await pending;
      reload();
    } catch (err) {
      input.value = text;
      fail(err);
      $('#send').disabled = false;
    }
  }

  $('#composer').addEventListener('submit', (e) => {
    e.preventDefault();
    send();
  });

  input.addEventListener('keydown', (e) => {
    if (e.key === 'Enter' && !e.shiftKey) {
      e.preventDefault();
      send();
    }
  });

  input.addEventListener('input', () => {
    input.style.height = 'auto';
    input.style.height = Math.min(input.scrollHeight, 200) + 'px';
  });

  $('#file-input').addEventListener('change', async (e) => {
    const form = new FormData();
    for (const f of e.target.files) form.append('file', f, f.name);
    e.target.value = '';
    try {
      await api('POST', '/api/attachments', form);
      reload();
    } catch (err) {
      fail(err);
    }
  });

  const keyForm = $('#api-key-form');
  if (keyForm) {
    keyForm.addEventListener('submit', async (e) => {
      e.preventDefault();
      try {
        await api('PATCH', '/api/settings', { api_key: $('#api-key').value });
        reload();
      } catch (err) {
        fail(err);
      }
    });
  }

  $('#model-select').addEventListener('change', (e) => {
    api('PATCH', '/api/settings', { model: e.target.value }).catch(fail);
  });

  $('#export-format').addEventListener('change', (e) => {
    const format = e.target.value;
    e.target.value = '';
    if (!format) return;
    window.location.href = '/api/conversations/' + encodeURIComponent(activeID()) + '/export?format=' + encodeURIComponent(format);
  });

  let searchTimer;
  $('#search').addEventListener('input', (e) => {
    clearTimeout(searchTimer);
    searchTimer = setTimeout(async () => {
      const found = await api('GET', '/api/search?q=' + encodeURIComponent(e.target.value));
      const ids = new Set(found.map((c) => c.id));
      document.querySelectorAll('#conversation-list li').forEach((li) => {
        li.hidden = !ids.has(li.dataset.id);
      });
    }, 150);
  });

  document.addEventListener('click', async (e) => {
    const el = e.target.closest('[data-action], #conversation-list li, #prompt-list li');
    if (!el) return;
    const action = el.dataset.action;
    const article = el.closest('article.message');
    const index = article ? article.dataset.index : undefined;

    try {
      switch (action) {
        case 'new-chat':
          await api('POST', '/api/conversations');
          reload();
          return;
        case 'delete-conversation':
          e.stopPropagation();
          if (!window.confirm('Delete this conversation?')) return;
          await api('DELETE', '/api/conversations/' + encodeURIComponent(el.closest('li').dataset.id));
          reload();
          return;
        case 'toggle-theme': {
          const light = document.body.classList.contains('light-theme');
          await api('PATCH', '/api/settings', { theme: light ? 'dark' : 'light' });
          reload();
          return;
        }
        case 'rename': {
          const title = window.prompt('Rename conversation', el.textContent);
          if (title === null) return;
          await api('PATCH', '/api/conversations/' + encodeURIComponent(activeID()), { title: title });
          reload();
          return;
        }
        case 'copy':
          await navigator.clipboard.writeText(article.querySelector('.message-content').innerText);
          return;
        case 'delete':
          await api('DELETE', '/api/messages/' + index);
          await refreshMessages(false);
          return;
        case 'regenerate': {
          const pending = api('POST', '/api/messages/' + index + '/regenerate');
          await pending;
          reload();
          return;
        }
        case 'remove-attachment':
          await api('DELETE', '/api/attachments/' + el.closest('li').dataset.index);
          reload();
          return;
        case 'save-prompt':
          await api('POST', '/api/prompts', { text: input.value });
          reload();
          return;
        case 'suggest':
          input.value = el.textContent;
          send();
          return;
      }

      const li = el.closest('li');
      if (li && li.parentElement.id === 'conversation-list') {
        await api('POST', '/api/conversations/' + encodeURIComponent(li.dataset.id) + '/activate');
        reload();
      } else if (li && li.parentElement.id === 'prompt-list') {
        input.value = li.querySelector('.prompt-text').textContent;
        input.focus();
      }
    } catch (err) {
      fail(err);
    }
  });

  messages.scrollTop = messages.scrollHeight;
})();
`
