package portal

// In-page scripts executed against the portal. Every script resolves to a
// {success, message, ...} object and never throws; selectors and page
// globals (UNIUX, grid) are version-pinned to the current portal build.

// sessionCheckScript reports whether the post-login UI is rendered. A
// visible alarm banner means failure; the request-management tab with its
// iframe means success.
const sessionCheckScript = `() => {
	try {
		const errorEl = document.querySelector('.up-alarm-box .up-alarm-message');
		if (errorEl && getComputedStyle(document.querySelector('#up-alarm')).display === 'block') {
			return { success: false, message: errorEl.textContent.trim() || '로그인 실패' };
		}
		const li = document.querySelector('li[title="요청내역관리"], li[name="요청내역관리"]');
		if (!li) return { success: false, message: '로그인 후 요청내역관리 탭을 찾을 수 없습니다' };
		const tabId = li.getAttribute('aria-controls');
		const iframe = document.getElementById(tabId);
		if (!iframe || !iframe.contentWindow) return { success: false, message: 'iframe을 찾을 수 없습니다' };
		return { success: true, message: '로그인 성공' };
	} catch (error) {
		return { success: false, message: '상태 확인 오류: ' + error.message };
	}
}`

// loginScript fills the login form and submits it. Credentials arrive as
// script arguments, so no value escaping is needed. Missing controls cover
// both the already-logged-in and unexpected-page cases.
const loginScript = `(username, password) => {
	try {
		const usernameField = document.querySelector('#userId');
		const passwordField = document.querySelector('#password');
		const loginButton = document.querySelector('body > div.wrap.login > div > div > div > div > form > fieldset > div.btn-area > button');
		if (!usernameField || !passwordField || !loginButton) {
			return { success: false, message: '로그인 요소를 찾을 수 없습니다' };
		}
		usernameField.value = username;
		passwordField.value = password;
		loginButton.click();
		return { success: true, message: '로그인 시도 완료' };
	} catch (error) {
		return { success: false, message: '로그인 스크립트 오류: ' + error.message };
	}
}`

// scrapeScript runs the full grid query sequence: all requests with a
// one-year lookback, then the personal subset filtered by the logged-in
// username. The loading indicator is polled every 100ms; a page without
// the indicator resolves immediately so the script cannot hang on it.
const scrapeScript = `async () => {
	function waitForLoadingToFinish(iframeDoc) {
		return new Promise((resolve) => {
			const loadingArea = iframeDoc.querySelector('.loading-area');
			if (!loadingArea) { resolve(); return; }
			const checkDisplay = () => {
				const style = window.getComputedStyle(loadingArea);
				if (style.display === 'none') { clearInterval(interval); resolve(); }
			};
			const interval = setInterval(checkDisplay, 100);
			checkDisplay();
		});
	}
	try {
		const li = document.querySelector('li[title="요청내역관리"], li[name="요청내역관리"]');
		if (!li) return { success: false, message: '요청내역관리 탭을 찾을 수 없습니다' };
		const tabId = li.getAttribute('aria-controls');
		const iframe = document.getElementById(tabId);
		if (!iframe || !iframe.contentWindow) return { success: false, message: 'iframe을 찾을 수 없습니다' };
		iframe.contentWindow.UNIUX.Mask();
		await waitForLoadingToFinish(iframe.contentDocument);
		iframe.contentWindow.UNIUX.removeMask();
		iframe.contentWindow.UNIUX.SVC('PROGRESSION_TYPE', 'R,E,O,A,C,N,M');
		iframe.contentWindow.UNIUX.SVC('RECEIPT_INFO_SEARCH_TYPE', 'A');
		iframe.contentWindow.UNIUX.SVC('START_DATE',
			new Date(new Date().setFullYear(new Date().getFullYear() - 1)).toISOString().split('T')[0]);
		iframe.contentDocument.querySelector('#doSearch').click();
		await waitForLoadingToFinish(iframe.contentDocument);
		iframe.contentWindow.UNIUX.removeMask();
		const allRequestsData = iframe.contentWindow.grid.getAllRowValue();
		const currentUsername = document.querySelector('.userNm').textContent.trim();
		iframe.contentWindow.UNIUX.SVC('RECEIPT_INFO_SEARCH_TYPE', 'P');
		iframe.contentWindow.UNIUX.SVC('RECEIPT_INFO_TEXT', currentUsername);
		iframe.contentDocument.querySelector('#doSearch').click();
		await waitForLoadingToFinish(iframe.contentDocument);
		iframe.contentWindow.UNIUX.removeMask();
		const personalRequestsData = iframe.contentWindow.grid.getAllRowValue();
		iframe.contentWindow.UNIUX.removeMask();
		return { success: true, allRequestsData, personalRequestsData };
	} catch (error) {
		return { success: false, message: '데이터 스크래핑 오류: ' + error.message };
	}
}`
